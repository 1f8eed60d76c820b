package step

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/runtime"
)

// BaseStep provides common fields and default method implementations for steps.
type BaseStep struct {
	NameField        string
	DescriptionField string
}

// NewBaseStep is a helper constructor for initializing common BaseStep fields.
func NewBaseStep(name, description string) BaseStep {
	return BaseStep{
		NameField:        name,
		DescriptionField: description,
	}
}

// Name returns the name of the step.
func (bs *BaseStep) Name() string {
	return bs.NameField
}

// Description returns the description of the step, or its name.
func (bs *BaseStep) Description() string {
	if bs.DescriptionField == "" {
		return bs.NameField
	}
	return bs.DescriptionField
}

// Init checks the runtime. Concrete steps call it before their own checks.
func (bs *BaseStep) Init(rt runtime.Runtime, logger *logrus.Entry) error {
	if rt == nil {
		return fmt.Errorf("runtime cannot be nil for step '%s'", bs.NameField)
	}
	return nil
}

// Execute is overridden by concrete steps.
func (bs *BaseStep) Execute(_ context.Context, _ runtime.Runtime, logger *logrus.Entry) (string, bool, error) {
	logger.Warnf("BaseStep.Execute called directly for step [%s]", bs.NameField)
	return "", false, fmt.Errorf("Execute not implemented for step '%s'", bs.NameField)
}

// Post is a hook for post-execution actions. The base implementation is a no-op.
func (bs *BaseStep) Post(_ runtime.Runtime, logger *logrus.Entry, executeErr error) error {
	if executeErr != nil {
		logger.Debugf("step [%s] finished with error: %v", bs.NameField, executeErr)
	}
	return nil
}
