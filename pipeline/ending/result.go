package ending

import (
	"fmt"
	"strings"
	"time"
)

// Phase is a state of the sequence executor.
type Phase string

const (
	PhasePending          Phase = "pending"
	PhaseRunning          Phase = "running"
	PhaseAwaitingDecision Phase = "awaiting_decision"
	PhaseCompleted        Phase = "completed"
	PhaseAborted          Phase = "aborted"
)

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

// StepStatus defines the outcome of one step in a sequence.
type StepStatus int

const (
	StepSucceeded StepStatus = iota // step and its validation passed
	StepFailed                      // command or validation failed
	StepSkipped                     // operator skipped the step
)

// String returns a string representation of the StepStatus.
func (s StepStatus) String() string {
	switch s {
	case StepSucceeded:
		return "success"
	case StepFailed:
		return "failure"
	case StepSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("unknown_status_%d", int(s))
	}
}

// SequenceState is the position of the last dispatched step and whether
// the run was aborted. It only lives for one run.
type SequenceState struct {
	SectionIndex int
	StepIndex    int
	Aborted      bool
}

// StepResult is the recorded outcome of one step.
type StepResult struct {
	Section  string
	Step     string
	Status   StepStatus
	Output   string
	Error    string
	Err      error
	Duration time.Duration
	Attempts int
}

// SequenceResult is the run report of one sequence.
type SequenceResult struct {
	Name     string
	Phase    Phase
	State    SequenceState
	Steps    []StepResult
	Duration time.Duration
}

// NewSequenceResult creates a result in the pending phase.
func NewSequenceResult(name string) *SequenceResult {
	return &SequenceResult{
		Name:  name,
		Phase: PhasePending,
		Steps: make([]StepResult, 0),
	}
}

// Add appends a step outcome.
func (r *SequenceResult) Add(s StepResult) {
	r.Steps = append(r.Steps, s)
}

// Statuses lists the step outcomes in execution order.
func (r *SequenceResult) Statuses() []StepStatus {
	out := make([]StepStatus, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Status
	}
	return out
}

// Count returns how many steps ended with status.
func (r *SequenceResult) Count(status StepStatus) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the failed step results.
func (r *SequenceResult) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			out = append(out, s)
		}
	}
	return out
}

// Succeeded is true when the sequence completed without a failed step.
func (r *SequenceResult) Succeeded() bool {
	return r.Phase == PhaseCompleted && r.Count(StepFailed) == 0
}

// CombinedError aggregates the step errors, or returns nil.
func (r *SequenceResult) CombinedError() error {
	failed := r.Failed()
	switch len(failed) {
	case 0:
		if r.Phase == PhaseAborted {
			return fmt.Errorf("sequence %s aborted", r.Name)
		}
		return nil
	case 1:
		if failed[0].Err != nil {
			return fmt.Errorf("step %s: %w", failed[0].Step, failed[0].Err)
		}
		return fmt.Errorf("step %s: %s", failed[0].Step, failed[0].Error)
	}
	msgs := make([]string, 0, len(failed))
	for _, s := range failed {
		msgs = append(msgs, fmt.Sprintf("step %s: %s", s.Step, s.Error))
	}
	return fmt.Errorf("multiple steps failed: %s", strings.Join(msgs, "; "))
}
