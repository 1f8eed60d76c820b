// Package hook runs a unit of work with error and cleanup handlers and
// turns a panic into an error.
package hook

import (
	"errors"
	"fmt"
)

// ErrPanic marks an error recovered from a panic inside Try.
var ErrPanic = errors.New("panic occurred during hook execution")

// Interface is a unit of work with its handlers. Catch sees every error
// Try returns; Finally always runs last.
type Interface interface {
	Try() error
	Catch(err error) error
	Finally()
}

// Funcs adapts plain functions to Interface. A nil CatchFunc returns the
// error unchanged and a nil FinallyFunc does nothing.
type Funcs struct {
	TryFunc     func() error
	CatchFunc   func(error) error
	FinallyFunc func()
}

func (f Funcs) Try() error {
	if f.TryFunc == nil {
		return nil
	}
	return f.TryFunc()
}

func (f Funcs) Catch(err error) error {
	if f.CatchFunc == nil {
		return err
	}
	return f.CatchFunc(err)
}

func (f Funcs) Finally() {
	if f.FinallyFunc != nil {
		f.FinallyFunc()
	}
}

// Call runs hook. A panic in Try is returned as an error wrapping ErrPanic
// and bypasses Catch.
func Call(hook Interface) (err error) {
	if hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}

	defer hook.Finally()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if tryErr := hook.Try(); tryErr != nil {
		return hook.Catch(tryErr)
	}
	return nil
}
