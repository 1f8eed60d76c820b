// Package manifest holds the steps that apply and delete a component's
// Kubernetes manifests.
package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/mensylisir/xmstack/kube"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/step"
)

type manifestStep struct {
	step.BaseStep
	Patterns  []string
	Namespace string
	objs      []*unstructured.Unstructured
}

// Init resolves the globs relative to the configuration and decodes every
// document, so a broken manifest fails before anything is applied.
func (s *manifestStep) Init(rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(rt, log); err != nil {
		return err
	}
	objs, files, err := s.read(rt)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return fmt.Errorf("manifests %s contain no objects", strings.Join(s.Patterns, ", "))
	}
	s.objs = objs
	log.Debugf("%d object(s) from %d file(s)", len(objs), len(files))
	return nil
}

func (s *manifestStep) read(rt runtime.Runtime) ([]*unstructured.Unstructured, []string, error) {
	cfg := rt.Config()
	if fsys := cfg.ManifestFS(); fsys != nil {
		files, err := kube.ResolveManifestsFS(fsys, s.Patterns)
		if err != nil {
			return nil, nil, err
		}
		objs, err := kube.ReadManifestsFS(fsys, files)
		return objs, files, err
	}
	files, err := kube.ResolveManifests(cfg.BaseDir(), s.Patterns)
	if err != nil {
		return nil, nil, err
	}
	objs, err := kube.ReadManifests(files)
	return objs, files, err
}

// ApplyManifestsStep server-side applies manifests in file order.
type ApplyManifestsStep struct {
	manifestStep
}

// NewApplyManifestsStep creates a step applying the manifests matched by patterns.
func NewApplyManifestsStep(name string, patterns []string, namespace string) *ApplyManifestsStep {
	return &ApplyManifestsStep{manifestStep{
		BaseStep:  step.NewBaseStep(name, "Apply "+strings.Join(patterns, ", ")),
		Patterns:  patterns,
		Namespace: namespace,
	}}
}

func (s *ApplyManifestsStep) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	client, err := rt.KubeClient()
	if err != nil {
		return "", false, err
	}
	var out strings.Builder
	for _, obj := range s.objs {
		if err := client.Apply(ctx, obj, s.Namespace); err != nil {
			return out.String(), false, err
		}
		line := kube.Describe(obj) + " applied"
		log.Info(line)
		fmt.Fprintln(rt.Out(), line)
		out.WriteString(line + "\n")
	}
	return out.String(), true, nil
}

// DeleteManifestsStep deletes manifests in reverse order. Objects that are
// already gone are skipped.
type DeleteManifestsStep struct {
	manifestStep
}

// NewDeleteManifestsStep creates a step deleting the manifests matched by patterns.
func NewDeleteManifestsStep(name string, patterns []string, namespace string) *DeleteManifestsStep {
	return &DeleteManifestsStep{manifestStep{
		BaseStep:  step.NewBaseStep(name, "Delete "+strings.Join(patterns, ", ")),
		Patterns:  patterns,
		Namespace: namespace,
	}}
}

func (s *DeleteManifestsStep) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	client, err := rt.KubeClient()
	if err != nil {
		return "", false, err
	}
	var out strings.Builder
	for i := len(s.objs) - 1; i >= 0; i-- {
		obj := s.objs[i]
		deleted, err := client.Delete(ctx, obj, s.Namespace)
		if err != nil {
			return out.String(), false, err
		}
		line := kube.Describe(obj) + " deleted"
		if !deleted {
			line = kube.Describe(obj) + " not found"
		}
		log.Info(line)
		fmt.Fprintln(rt.Out(), line)
		out.WriteString(line + "\n")
	}
	return out.String(), true, nil
}

var (
	_ step.Step = (*ApplyManifestsStep)(nil)
	_ step.Step = (*DeleteManifestsStep)(nil)
)
