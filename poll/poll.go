// Package poll waits for an external system to converge by repeating a
// readiness check at a fixed interval until it passes or a timeout elapses.
package poll

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/common"
	xmtime "github.com/mensylisir/xmstack/time"
)

// Check is one readiness attempt. A nil error means ready.
type Check func(ctx context.Context) error

// Outcome summarizes one Poll call.
type Outcome struct {
	Ready    bool
	Attempts int
	Elapsed  time.Duration
	// LastErr is the error of the final failed attempt, nil when Ready.
	LastErr error
}

// Observer is told about every attempt; metrics hook in here.
type Observer func(attempt int, err error)

// Validator runs a Check until it passes or a deadline is reached.
// The interval is fixed for the lifetime of the Validator.
type Validator struct {
	interval time.Duration
	clock    clockwork.Clock
	observer Observer
}

// Option configures a Validator.
type Option func(*Validator)

// WithInterval sets the sleep between two attempts. Non-positive values
// keep the default.
func WithInterval(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.interval = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock clockwork.Clock) Option {
	return func(v *Validator) {
		v.clock = clock
	}
}

// WithObserver registers a callback invoked after each attempt.
func WithObserver(o Observer) Option {
	return func(v *Validator) {
		v.observer = o
	}
}

// NewValidator returns a Validator sleeping common.DefaultPollInterval
// between attempts unless configured otherwise.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		interval: common.DefaultPollInterval,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Interval returns the fixed sleep between attempts.
func (v *Validator) Interval() time.Duration {
	return v.interval
}

// Poll runs check, then sleeps and repeats while it fails and the time
// since the first attempt is below timeout. The first attempt always runs,
// so a zero timeout performs exactly one check. A cancelled ctx ends the
// loop early with Ready false.
func (v *Validator) Poll(ctx context.Context, log *logrus.Entry, check Check, timeout time.Duration) Outcome {
	start := v.clock.Now()
	var out Outcome
	for {
		out.Attempts++
		err := check(ctx)
		out.Elapsed = v.clock.Since(start)
		if v.observer != nil {
			v.observer(out.Attempts, err)
		}
		if err == nil {
			out.Ready = true
			out.LastErr = nil
			log.Debugf("ready after %d attempt(s) in %s", out.Attempts, xmtime.Elapsed(out.Elapsed))
			return out
		}
		out.LastErr = err
		if out.Elapsed >= timeout {
			log.Debugf("not ready after %d attempt(s) in %s: %v", out.Attempts, xmtime.Elapsed(out.Elapsed), err)
			return out
		}
		log.Debugf("attempt %d not ready, retrying in %s: %v", out.Attempts, xmtime.ShortDur(v.interval), err)

		select {
		case <-ctx.Done():
			out.LastErr = ctx.Err()
			out.Elapsed = v.clock.Since(start)
			return out
		case <-v.clock.After(v.interval):
		}
	}
}
