package common

import "github.com/pkg/errors"

// Failure kinds surfaced to the operator. Callers wrap them with %w and
// test with errors.Is.
var (
	// ErrInvocation means a command could not be started or exited non-zero.
	ErrInvocation = errors.New("invocation failure")
	// ErrValidationTimeout means a readiness check never passed in its window.
	ErrValidationTimeout = errors.New("validation timeout")
	// ErrConfig means the step or section definitions are malformed.
	ErrConfig = errors.New("configuration error")
	// ErrInterrupted means the operator or a signal cancelled the run.
	ErrInterrupted = errors.New("interrupted")
)
