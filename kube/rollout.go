package kube

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// RolloutStatus returns nil once the named workload is fully rolled out and
// an error describing what is still pending otherwise. It suits a poll
// check: every call is a fresh read.
func (c *Client) RolloutStatus(ctx context.Context, kind, namespace, name string) error {
	apps := c.clientset.AppsV1()
	switch kind {
	case "Deployment":
		d, err := apps.Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		return deploymentStatus(d)
	case "StatefulSet":
		s, err := apps.StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		return statefulSetStatus(s)
	case "DaemonSet":
		d, err := apps.DaemonSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		return daemonSetStatus(d)
	default:
		return fmt.Errorf("rollout status is not supported for kind %q", kind)
	}
}

func replicasOrOne(r *int32) int32 {
	if r == nil {
		return 1
	}
	return *r
}

func deploymentStatus(d *appsv1.Deployment) error {
	if d.Generation > d.Status.ObservedGeneration {
		return fmt.Errorf("deployment %q: waiting for spec update to be observed", d.Name)
	}
	want := replicasOrOne(d.Spec.Replicas)
	st := d.Status
	switch {
	case st.UpdatedReplicas < want:
		return fmt.Errorf("deployment %q: %d out of %d new replicas have been updated", d.Name, st.UpdatedReplicas, want)
	case st.Replicas > st.UpdatedReplicas:
		return fmt.Errorf("deployment %q: %d old replicas are pending termination", d.Name, st.Replicas-st.UpdatedReplicas)
	case st.AvailableReplicas < st.UpdatedReplicas:
		return fmt.Errorf("deployment %q: %d of %d updated replicas are available", d.Name, st.AvailableReplicas, st.UpdatedReplicas)
	}
	return nil
}

func statefulSetStatus(s *appsv1.StatefulSet) error {
	if s.Status.ObservedGeneration == 0 || s.Generation > s.Status.ObservedGeneration {
		return fmt.Errorf("statefulset %q: waiting for spec update to be observed", s.Name)
	}
	want := replicasOrOne(s.Spec.Replicas)
	st := s.Status
	if st.ReadyReplicas < want {
		return fmt.Errorf("statefulset %q: %d of %d pods are ready", s.Name, st.ReadyReplicas, want)
	}
	if s.Spec.UpdateStrategy.Type == appsv1.RollingUpdateStatefulSetStrategyType && st.UpdateRevision != st.CurrentRevision {
		return fmt.Errorf("statefulset %q: %d of %d pods updated to revision %s", s.Name, st.UpdatedReplicas, want, st.UpdateRevision)
	}
	return nil
}

func daemonSetStatus(d *appsv1.DaemonSet) error {
	if d.Generation > d.Status.ObservedGeneration {
		return fmt.Errorf("daemonset %q: waiting for spec update to be observed", d.Name)
	}
	st := d.Status
	if st.UpdatedNumberScheduled < st.DesiredNumberScheduled {
		return fmt.Errorf("daemonset %q: %d out of %d new pods have been updated", d.Name, st.UpdatedNumberScheduled, st.DesiredNumberScheduled)
	}
	if st.NumberAvailable < st.DesiredNumberScheduled {
		return fmt.Errorf("daemonset %q: %d of %d updated pods are available", d.Name, st.NumberAvailable, st.DesiredNumberScheduled)
	}
	return nil
}
