// Package pipeline drives an ordered sequence of steps through a state
// machine, asking an Operator how to proceed at each decision point.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/pipeline/ending"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/section"
	"github.com/mensylisir/xmstack/step"
	xmtime "github.com/mensylisir/xmstack/time"
)

// Events of the sequence state machine.
const (
	EventDispatch = "DISPATCH"
	EventSucceed  = "SUCCEED"
	EventFail     = "FAIL"
	EventContinue = "CONTINUE"
	EventAbort    = "ABORT"
	EventFinish   = "FINISH"
)

// Machine states. They spell the same values as the ending.Phase constants.
const (
	statePending          = "pending"
	stateRunning          = "running"
	stateAwaitingDecision = "awaiting_decision"
	stateCompleted        = "completed"
	stateAborted          = "aborted"
)

// newInterpreter describes the phases of one sequence. The machine context
// is the run's SequenceState: entering running records the dispatched
// position and entering aborted marks the run. A skip only advances the
// executor's index and stays in pending.
func newInterpreter() (*statekit.Interpreter[ending.SequenceState], error) {
	machine, err := statekit.NewMachine[ending.SequenceState]("sequence").
		WithInitial(statePending).
		WithContext(ending.SequenceState{}).
		WithAction("recordPosition", func(state *ending.SequenceState, event statekit.Event) {
			if pos, ok := event.Payload.(Position); ok {
				state.SectionIndex, state.StepIndex = pos.SectionIndex, pos.StepIndex
			}
		}).
		WithAction("recordAbort", func(state *ending.SequenceState, _ statekit.Event) {
			state.Aborted = true
		}).
		State(statePending).
		On(EventDispatch).Target(stateRunning).
		On(EventFinish).Target(stateCompleted).
		On(EventAbort).Target(stateAborted).Done().
		State(stateRunning).
		OnEntry("recordPosition").
		On(EventSucceed).Target(statePending).
		On(EventFail).Target(stateAwaitingDecision).
		On(EventAbort).Target(stateAborted).Done().
		State(stateAwaitingDecision).
		On(EventContinue).Target(statePending).
		On(EventAbort).Target(stateAborted).Done().
		State(stateCompleted).Done().
		State(stateAborted).
		OnEntry("recordAbort").Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

type entry struct {
	section      *section.Section
	sectionIndex int
	stepIndex    int
	step         step.Step
}

// Executor runs sequences of steps. It is not safe for concurrent use;
// one sequence runs at a time.
type Executor struct {
	rt       runtime.Runtime
	runner   *step.StepRunner
	operator Operator
}

// NewExecutor creates an Executor. A nil operator runs every step and
// aborts on the first failure without asking.
func NewExecutor(rt runtime.Runtime, op Operator) *Executor {
	return &Executor{
		rt:       rt,
		runner:   step.NewStepRunner(rt),
		operator: op,
	}
}

// Run executes the steps of sections in order and returns the run report.
// Every step is initialized before the first one is dispatched; an Init
// failure returns an error wrapping common.ErrConfig and nothing runs. The
// only other error is a state machine that cannot be built.
func (e *Executor) Run(ctx context.Context, log *logrus.Entry, name string, sections ...*section.Section) (*ending.SequenceResult, error) {
	var entries []entry
	for si, s := range sections {
		for i, st := range s.Steps() {
			entries = append(entries, entry{section: s, sectionIndex: si, stepIndex: i, step: st})
		}
	}
	log = log.WithField(common.SequenceName, name)

	for i, en := range entries {
		stepLog := logger.ForStep(logger.ForSection(log, en.section.Name()), en.step.Name(), i, len(entries))
		if err := e.runner.Init(en.step, stepLog); err != nil {
			return nil, fmt.Errorf("section %s: %w", en.section.Name(), err)
		}
	}

	interp, err := newInterpreter()
	if err != nil {
		return nil, fmt.Errorf("failed to build sequence state machine: %w", err)
	}
	interp.Start()
	defer interp.Stop()

	send := func(event string) {
		interp.Send(statekit.Event{Type: statekit.EventType(event)})
	}
	phase := func() ending.Phase {
		return ending.Phase(interp.State().Value)
	}

	result := ending.NewSequenceResult(name)
	start := time.Now()
	log.Infof("running sequence of %d steps", len(entries))

	for i := 0; i < len(entries); {
		en := entries[i]
		pos := Position{
			Section:      en.section.Name(),
			SectionIndex: en.sectionIndex,
			StepIndex:    en.stepIndex,
			Index:        i,
			Total:        len(entries),
			Step:         en.step,
		}
		stepLog := logger.ForStep(logger.ForSection(log, pos.Section), en.step.Name(), i, len(entries))

		if err := ctx.Err(); err != nil {
			stepLog.Warnf("sequence interrupted: %v", err)
			send(EventAbort)
			break
		}

		decision := e.confirm(ctx, pos, stepLog)
		if decision == Abort {
			stepLog.Info("aborted by operator")
			send(EventAbort)
			break
		}
		if decision == Skip {
			stepLog.Info("skipped by operator")
			fmt.Fprintf(e.rt.Out(), "---> [%d/%d] %s: skipped\n", i+1, len(entries), en.step.Name())
			result.Add(ending.StepResult{Section: pos.Section, Step: en.step.Name(), Status: ending.StepSkipped})
			e.rt.Metrics().StepFinished(pos.Section, ending.StepSkipped.String(), 0)
			i++
			continue
		}

		interp.Send(statekit.Event{Type: EventDispatch, Payload: pos})
		fmt.Fprintf(e.rt.Out(), "===> [%d/%d] %s (%s)\n", i+1, len(entries), en.step.Name(), en.step.Description())
		res := e.runner.Execute(ctx, en.step, stepLog)
		sr := ending.StepResult{
			Section:  pos.Section,
			Step:     en.step.Name(),
			Output:   res.Output,
			Error:    res.Error,
			Err:      res.Err,
			Duration: res.Duration,
			Attempts: res.Attempts,
		}

		if res.Succeeded {
			sr.Status = ending.StepSucceeded
			result.Add(sr)
			e.rt.Metrics().StepFinished(pos.Section, sr.Status.String(), res.Duration)
			fmt.Fprintf(e.rt.Out(), "===> %s succeeded in %s\n", en.step.Name(), xmtime.Elapsed(res.Duration))
			send(EventSucceed)
			i++
			continue
		}

		sr.Status = ending.StepFailed
		result.Add(sr)
		e.rt.Metrics().StepFinished(pos.Section, sr.Status.String(), res.Duration)
		fmt.Fprintf(e.rt.ErrOut(), "===> %s FAILED: %s\n", en.step.Name(), res.Error)

		if e.operator == nil {
			send(EventAbort)
			break
		}
		send(EventFail)
		if e.onFailure(ctx, pos, res, stepLog) != Continue {
			stepLog.Info("sequence aborted after failure")
			send(EventAbort)
			break
		}
		stepLog.Warn("continuing after failure")
		send(EventContinue)
		i++
	}

	if phase() == ending.PhasePending {
		send(EventFinish)
	}
	result.Phase = phase()
	result.State = interp.State().Context
	result.Duration = time.Since(start)
	e.rt.Metrics().SequenceFinished(string(result.Phase))
	log.Infof("sequence %s: %d succeeded, %d failed, %d skipped in %s", result.Phase,
		result.Count(ending.StepSucceeded), result.Count(ending.StepFailed), result.Count(ending.StepSkipped),
		xmtime.Elapsed(result.Duration))
	return result, nil
}

func (e *Executor) confirm(ctx context.Context, pos Position, log *logrus.Entry) Decision {
	if e.operator == nil {
		return Run
	}
	d, err := e.operator.Confirm(ctx, pos)
	if err != nil {
		log.Warnf("no decision before step: %v", err)
		return Abort
	}
	if d != Run && d != Skip {
		return Abort
	}
	return d
}

func (e *Executor) onFailure(ctx context.Context, pos Position, res step.ExecutionResult, log *logrus.Entry) Decision {
	d, err := e.operator.OnFailure(ctx, pos, res)
	if err != nil {
		log.Warnf("no decision after failure: %v", err)
		return Abort
	}
	return d
}
