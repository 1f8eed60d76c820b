package runcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/runner"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/step"
)

// RunCommandStep runs a configured shell command with the operator's
// terminal attached, optionally followed by a validation command poll.
type RunCommandStep struct {
	step.BaseStep
	Command    string
	Sudo       bool
	Validate   *config.ValidationSpec
	rendered   string
	validation *step.Validation
}

// NewRunCommandStep creates a new RunCommandStep.
func NewRunCommandStep(name, description, command string) *RunCommandStep {
	return &RunCommandStep{
		BaseStep: step.NewBaseStep(name, description),
		Command:  command,
	}
}

// FromSpec builds the step for one configured menu entry.
func FromSpec(spec config.StepSpec) *RunCommandStep {
	s := NewRunCommandStep(spec.Name, spec.Command, spec.Command)
	s.Sudo = spec.Sudo
	s.Validate = spec.Validation
	return s
}

// Init renders the command and validation templates.
func (s *RunCommandStep) Init(rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(rt, log); err != nil {
		return err
	}
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("command string cannot be empty for step: %s", s.Name())
	}
	rendered, err := rt.Render(s.Command)
	if err != nil {
		return fmt.Errorf("render command: %w", err)
	}
	s.rendered = rendered
	if s.Sudo {
		s.rendered = runner.SudoCommand(rendered)
	}

	validation, err := RenderValidation(rt, s.Validate)
	if err != nil {
		return err
	}
	s.validation = validation
	log.Debugf("command: %s", s.rendered)
	return nil
}

// RenderValidation builds the poll of a configured validation command, or
// returns nil for a nil spec.
func RenderValidation(rt runtime.Runtime, spec *config.ValidationSpec) (*step.Validation, error) {
	if spec == nil {
		return nil, nil
	}
	check, err := rt.Render(spec.Command)
	if err != nil {
		return nil, fmt.Errorf("render validation command: %w", err)
	}
	msg, err := rt.Render(spec.SuccessMessage)
	if err != nil {
		return nil, fmt.Errorf("render success message: %w", err)
	}
	r := rt.Runner()
	return &step.Validation{
		Description:    fmt.Sprintf("'%s'", check),
		Check:          func(ctx context.Context) error { return r.Check(ctx, check) },
		Timeout:        spec.TimeoutDuration(),
		SuccessMessage: msg,
	}, nil
}

// Execute streams the command to the operator while capturing its output.
func (s *RunCommandStep) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	output, exitCode, err := rt.Runner().Stream(ctx, s.rendered, rt.Out(), rt.ErrOut())
	if err := runner.CommandError(s.rendered, output, exitCode, err); err != nil {
		return output, false, err
	}
	return output, true, nil
}

// Validation returns the poll rendered by Init, or nil.
func (s *RunCommandStep) Validation(runtime.Runtime) *step.Validation {
	return s.validation
}

var (
	_ step.Step      = (*RunCommandStep)(nil)
	_ step.Validated = (*RunCommandStep)(nil)
)
