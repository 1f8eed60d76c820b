// Package readiness holds the step waiting for a component to become ready.
package readiness

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/step"
)

// WaitReadyStep has no action of its own; its validation polls either a
// shell command or the rollout status of a workload.
type WaitReadyStep struct {
	step.BaseStep
	Spec       config.ReadinessSpec
	Namespace  string
	validation *step.Validation
}

// NewWaitReadyStep creates a WaitReadyStep.
func NewWaitReadyStep(name string, spec config.ReadinessSpec, namespace string) *WaitReadyStep {
	return &WaitReadyStep{
		BaseStep:  step.NewBaseStep(name, "Wait for readiness"),
		Spec:      spec,
		Namespace: namespace,
	}
}

func (s *WaitReadyStep) Init(rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(rt, log); err != nil {
		return err
	}
	v := &step.Validation{Timeout: s.Spec.TimeoutDuration()}

	switch {
	case s.Spec.Command != "":
		command, err := rt.Render(s.Spec.Command)
		if err != nil {
			return fmt.Errorf("render readiness command: %w", err)
		}
		r := rt.Runner()
		v.Description = fmt.Sprintf("'%s'", command)
		v.Check = func(ctx context.Context) error { return r.Check(ctx, command) }
	case s.Spec.Kind != "" && s.Spec.Name != "":
		kind, name, ns := s.Spec.Kind, s.Spec.Name, s.Namespace
		v.Description = fmt.Sprintf("%s %s/%s", kind, ns, name)
		v.SuccessMessage = fmt.Sprintf("%s %s/%s is ready", kind, ns, name)
		v.Check = func(ctx context.Context) error {
			client, err := rt.KubeClient()
			if err != nil {
				return err
			}
			return client.RolloutStatus(ctx, kind, ns, name)
		}
	default:
		return fmt.Errorf("readiness for step %s needs a command or a workload", s.Name())
	}
	s.validation = v
	return nil
}

func (s *WaitReadyStep) Execute(context.Context, runtime.Runtime, *logrus.Entry) (string, bool, error) {
	return "", true, nil
}

func (s *WaitReadyStep) Validation(runtime.Runtime) *step.Validation {
	return s.validation
}

var (
	_ step.Step      = (*WaitReadyStep)(nil)
	_ step.Validated = (*WaitReadyStep)(nil)
)
