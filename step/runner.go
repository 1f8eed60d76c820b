package step

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/hook"
	"github.com/mensylisir/xmstack/poll"
	"github.com/mensylisir/xmstack/runtime"
	xmtime "github.com/mensylisir/xmstack/time"
)

// Validation is a readiness poll attached to a step.
type Validation struct {
	// Description names what is awaited, e.g. "statefulset data/kafka".
	Description    string
	Check          poll.Check
	Timeout        time.Duration
	SuccessMessage string
}

// ExecutionResult is the outcome of one step invocation.
type ExecutionResult struct {
	Succeeded bool
	Output    string
	// Error is the human-readable failure text, empty on success.
	Error string
	// Err keeps the error chain for errors.Is against the common sentinels.
	Err      error
	Duration time.Duration
	// Attempts is the number of readiness checks run, 0 without validation.
	Attempts int
}

func failed(output string, err error, start time.Time) ExecutionResult {
	return ExecutionResult{Output: output, Error: err.Error(), Err: err, Duration: time.Since(start)}
}

// StepRunner executes one step and classifies its outcome. It never retries
// the step itself; only an attached validation polls.
type StepRunner struct {
	rt runtime.Runtime
}

// NewStepRunner creates a StepRunner bound to rt.
func NewStepRunner(rt runtime.Runtime) *StepRunner {
	return &StepRunner{rt: rt}
}

// Init initializes s. The returned error wraps common.ErrConfig.
func (r *StepRunner) Init(s Step, log *logrus.Entry) error {
	if err := s.Init(r.rt, log); err != nil {
		err = fmt.Errorf("%w: step '%s': %v", common.ErrConfig, s.Name(), err)
		log.Errorf("init failed: %v", err)
		return err
	}
	return nil
}

// Run drives s through Init, Execute, the optional validation and Post.
func (r *StepRunner) Run(ctx context.Context, s Step, log *logrus.Entry) ExecutionResult {
	start := time.Now()
	if err := r.Init(s, log); err != nil {
		return failed("", err, start)
	}
	return r.execute(ctx, s, log, start)
}

// Execute runs a step whose Init already succeeded.
func (r *StepRunner) Execute(ctx context.Context, s Step, log *logrus.Entry) ExecutionResult {
	return r.execute(ctx, s, log, time.Now())
}

func (r *StepRunner) execute(ctx context.Context, s Step, log *logrus.Entry, start time.Time) ExecutionResult {
	var (
		output string
		ok     bool
	)
	err := hook.Call(hook.Funcs{TryFunc: func() error {
		var execErr error
		output, ok, execErr = s.Execute(ctx, r.rt, log)
		return execErr
	}})
	if errors.Is(err, hook.ErrPanic) {
		err = fmt.Errorf("%w: step '%s': %v", common.ErrInvocation, s.Name(), err)
	}
	if err == nil && !ok {
		err = fmt.Errorf("%w: step '%s' reported failure", common.ErrInvocation, s.Name())
	}

	var attempts int
	if err == nil {
		if v, isValidated := s.(Validated); isValidated {
			if validation := v.Validation(r.rt); validation != nil {
				attempts, err = r.validate(ctx, validation, log)
			}
		}
	}

	if postErr := s.Post(r.rt, log, err); postErr != nil {
		log.Warnf("post-execute failed: %v", postErr)
	}

	if err != nil {
		log.Errorf("step failed: %v", err)
		res := failed(output, err, start)
		res.Attempts = attempts
		return res
	}
	log.Infof("step succeeded in %s", xmtime.Elapsed(time.Since(start)))
	return ExecutionResult{Succeeded: true, Output: output, Duration: time.Since(start), Attempts: attempts}
}

func (r *StepRunner) validate(ctx context.Context, v *Validation, log *logrus.Entry) (int, error) {
	fmt.Fprintf(r.rt.Out(), "Waiting for %s (timeout %s)...\n", v.Description, xmtime.ShortDur(v.Timeout))
	out := r.rt.Validator().Poll(ctx, log, v.Check, v.Timeout)
	if !out.Ready {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(out.LastErr, ctxErr) {
			return out.Attempts, fmt.Errorf("%w: waiting for %s after %d attempts: %v",
				common.ErrInterrupted, v.Description, out.Attempts, ctxErr)
		}
		return out.Attempts, fmt.Errorf("%w: %s not ready after %s (%d attempts): %v",
			common.ErrValidationTimeout, v.Description, xmtime.Elapsed(out.Elapsed), out.Attempts, out.LastErr)
	}
	if v.SuccessMessage != "" {
		fmt.Fprintln(r.rt.Out(), v.SuccessMessage)
	}
	return out.Attempts, nil
}
