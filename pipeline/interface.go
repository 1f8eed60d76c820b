package pipeline

import (
	"context"

	"github.com/mensylisir/xmstack/step"
)

// Decision is an operator's answer at a decision point.
type Decision int

const (
	// Run dispatches the pending step.
	Run Decision = iota
	// Skip advances past the pending step without running it.
	Skip
	// Continue moves on after a failed step.
	Continue
	// Abort ends the sequence.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Run:
		return "run"
	case Skip:
		return "skip"
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Position identifies a step within the running sequence.
type Position struct {
	Section      string
	SectionIndex int
	StepIndex    int
	// Index and Total count steps across all sections.
	Index int
	Total int
	Step  step.Step
}

// Operator decides how a sequence proceeds. Confirm is asked before each
// step and answers Run, Skip or Abort. OnFailure is asked after a failed
// step and answers Continue or Abort. An error from either is read as Abort.
type Operator interface {
	Confirm(ctx context.Context, pos Position) (Decision, error)
	OnFailure(ctx context.Context, pos Position, res step.ExecutionResult) (Decision, error)
}

// FailurePolicy is what an unattended operator does after a failure.
type FailurePolicy string

const (
	AbortOnFailure    FailurePolicy = "abort"
	ContinueOnFailure FailurePolicy = "continue"
)

type unattended struct {
	policy FailurePolicy
}

// Unattended returns an operator that runs every step and applies policy
// to failures.
func Unattended(policy FailurePolicy) Operator {
	return unattended{policy: policy}
}

func (u unattended) Confirm(context.Context, Position) (Decision, error) {
	return Run, nil
}

func (u unattended) OnFailure(context.Context, Position, step.ExecutionResult) (Decision, error) {
	if u.policy == ContinueOnFailure {
		return Continue, nil
	}
	return Abort, nil
}
