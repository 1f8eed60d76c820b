package component

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/section"
	"github.com/mensylisir/xmstack/step"
	"github.com/mensylisir/xmstack/step/runcmd"
)

// RunStep is a section entry that deploys or cleans up a catalog component
// in-process, with the configuration and runtime of the running session.
type RunStep struct {
	step.BaseStep
	Spec config.StepSpec

	component  *Component
	action     Action
	section    *section.Section
	validation *step.Validation
}

// NewRunStep creates the step for a configured component entry.
func NewRunStep(spec config.StepSpec) *RunStep {
	action := spec.Action
	if action == "" {
		action = config.ActionDeploy
	}
	return &RunStep{
		BaseStep: step.NewBaseStep(spec.Name, fmt.Sprintf("%s %s", action, spec.Component)),
		Spec:     spec,
	}
}

// BuildStep is the section.Builder of configured sections: component
// entries run in-process, everything else is a shell command.
func BuildStep(spec config.StepSpec) step.Step {
	if spec.Component != "" {
		return NewRunStep(spec)
	}
	return section.CommandStep(spec)
}

// Init resolves the component and initializes every step of its action,
// so a missing manifest or a bad template fails before the sequence starts.
func (s *RunStep) Init(rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(rt, log); err != nil {
		return err
	}
	c, err := Lookup(rt.Config(), s.Spec.Component)
	if err != nil {
		return err
	}
	action, err := ParseAction(s.Spec.Action)
	if err != nil {
		return err
	}
	sec, err := c.Section(action)
	if err != nil {
		return err
	}
	if err := sec.Init(rt, log); err != nil {
		return err
	}
	validation, err := runcmd.RenderValidation(rt, s.Spec.Validation)
	if err != nil {
		return err
	}
	s.component, s.action, s.section, s.validation = c, action, sec, validation
	return nil
}

func (s *RunStep) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	res, err := s.component.run(ctx, rt, log, s.action, s.section)
	if err != nil {
		return "", false, err
	}
	if !res.Succeeded() {
		return "", false, fmt.Errorf("%s %s: %w", s.action, s.component.Name(), res.CombinedError())
	}
	return fmt.Sprintf("%s %s: %d steps succeeded", s.action, s.component.Name(), len(res.Steps)), true, nil
}

// Validation returns the step's own poll, or nil.
func (s *RunStep) Validation(runtime.Runtime) *step.Validation {
	return s.validation
}

var (
	_ step.Step      = (*RunStep)(nil)
	_ step.Validated = (*RunStep)(nil)
)
