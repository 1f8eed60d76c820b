package kube

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
)

// resourceFor maps obj to its dynamic resource client, filling in
// defaultNamespace for namespaced kinds that do not name one.
func (c *Client) resourceFor(obj *unstructured.Unstructured, defaultNamespace string) (dynamic.ResourceInterface, error) {
	gvk := obj.GroupVersionKind()
	mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if meta.IsNoMatchError(err) {
		// CRDs applied earlier in the same run are unknown to a cached mapper.
		c.mapper.Reset()
		mapping, err = c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", gvk.String(), err)
	}

	if mapping.Scope.Name() != meta.RESTScopeNameNamespace {
		obj.SetNamespace("")
		return c.dynamic.Resource(mapping.Resource), nil
	}
	if obj.GetNamespace() == "" {
		obj.SetNamespace(defaultNamespace)
	}
	return c.dynamic.Resource(mapping.Resource).Namespace(obj.GetNamespace()), nil
}

// Apply creates or updates obj with server-side apply, taking ownership of
// conflicting fields.
func (c *Client) Apply(ctx context.Context, obj *unstructured.Unstructured, defaultNamespace string) error {
	ri, err := c.resourceFor(obj, defaultNamespace)
	if err != nil {
		return err
	}
	_, err = ri.Apply(ctx, obj.GetName(), obj, metav1.ApplyOptions{
		FieldManager: c.fieldManager,
		Force:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", Describe(obj), err)
	}
	return nil
}

// Delete removes obj and its dependents. A missing object is not an error.
// It reports whether something was deleted.
func (c *Client) Delete(ctx context.Context, obj *unstructured.Unstructured, defaultNamespace string) (bool, error) {
	ri, err := c.resourceFor(obj, defaultNamespace)
	if err != nil {
		if meta.IsNoMatchError(err) {
			// The kind itself is gone, so is the object.
			return false, nil
		}
		return false, err
	}
	policy := metav1.DeletePropagationBackground
	err = ri.Delete(ctx, obj.GetName(), metav1.DeleteOptions{PropagationPolicy: &policy})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", Describe(obj), err)
	}
	return true, nil
}
