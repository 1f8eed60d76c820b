package step

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/runtime"
)

// Step represents an individual unit of work within a section.
type Step interface {
	// Name returns the short name of the step.
	Name() string

	// Description returns a human-readable description of what the step does.
	Description() string

	// Init renders templates and validates inputs. An error here is a
	// configuration error; the step is not executed.
	Init(rt runtime.Runtime, logger *logrus.Entry) error

	// Execute performs the primary action of the step.
	// It returns the captured output, whether the step succeeded, and the
	// error explaining a failure.
	Execute(ctx context.Context, rt runtime.Runtime, logger *logrus.Entry) (output string, success bool, err error)

	// Post performs any cleanup or final actions after Execute has completed.
	// It receives the error (if any) from the Execute phase.
	Post(rt runtime.Runtime, logger *logrus.Entry, executeErr error) error
}

// Validated is implemented by steps that declare a readiness poll. The
// poll runs only after Execute succeeded.
type Validated interface {
	Validation(rt runtime.Runtime) *Validation
}
