// Package containerimage holds the steps moving a component image into the
// cluster runtime and dropping it from the local cache.
package containerimage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/image"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/step"
)

// TransferImageStep saves an image from docker and imports it into containerd.
type TransferImageStep struct {
	step.BaseStep
	Request image.Request
}

// NewTransferImageStep creates a TransferImageStep.
func NewTransferImageStep(name string, req image.Request) *TransferImageStep {
	return &TransferImageStep{
		BaseStep: step.NewBaseStep(name, "Transfer "+req.Ref+" into containerd"),
		Request:  req,
	}
}

func (s *TransferImageStep) Init(rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(rt, log); err != nil {
		return err
	}
	if s.Request.Ref == "" {
		return fmt.Errorf("image reference cannot be empty for step: %s", s.Name())
	}
	return nil
}

func (s *TransferImageStep) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	images, err := rt.Images()
	if err != nil {
		return "", false, err
	}
	archive, err := images.Transfer(ctx, log, s.Request)
	if err != nil {
		return "", false, err
	}
	line := fmt.Sprintf("%s imported from %s", s.Request.Ref, archive)
	fmt.Fprintln(rt.Out(), line)
	return line, true, nil
}

// ForgetImageStep removes the cached archive of an image.
type ForgetImageStep struct {
	step.BaseStep
	Ref string
}

// NewForgetImageStep creates a ForgetImageStep.
func NewForgetImageStep(name, ref string) *ForgetImageStep {
	return &ForgetImageStep{
		BaseStep: step.NewBaseStep(name, "Remove cached archive of "+ref),
		Ref:      ref,
	}
}

func (s *ForgetImageStep) Execute(_ context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	images, err := rt.Images()
	if err != nil {
		return "", false, err
	}
	if err := images.Forget(s.Ref); err != nil {
		return "", false, err
	}
	log.Infof("cached archive of %s removed", s.Ref)
	return "", true, nil
}

var (
	_ step.Step = (*TransferImageStep)(nil)
	_ step.Step = (*ForgetImageStep)(nil)
)
