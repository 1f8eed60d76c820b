// Package host holds steps that only touch the local node.
package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/step"
)

// CheckPrerequisitesStep fails when any of the named binaries is missing
// from PATH.
type CheckPrerequisitesStep struct {
	step.BaseStep
	Binaries []string
}

// NewCheckPrerequisitesStep creates a CheckPrerequisitesStep.
func NewCheckPrerequisitesStep(name string, binaries []string) *CheckPrerequisitesStep {
	return &CheckPrerequisitesStep{
		BaseStep: step.NewBaseStep(name, "Check "+strings.Join(binaries, ", ")),
		Binaries: binaries,
	}
}

func (s *CheckPrerequisitesStep) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	var missing []string
	for _, bin := range s.Binaries {
		if err := rt.Runner().Check(ctx, "command -v "+bin); err != nil {
			log.Debugf("%s not found: %v", bin, err)
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return "", false, fmt.Errorf("%w: missing prerequisites: %s", common.ErrInvocation, strings.Join(missing, ", "))
	}
	out := fmt.Sprintf("found %s", strings.Join(s.Binaries, ", "))
	fmt.Fprintln(rt.Out(), out)
	return out, true, nil
}

// PrintAccessStep renders and prints where a deployed component is reachable.
type PrintAccessStep struct {
	step.BaseStep
	Component string
	Entries   []string
	rendered  []string
}

// NewPrintAccessStep creates a PrintAccessStep.
func NewPrintAccessStep(name, component string, entries []string) *PrintAccessStep {
	return &PrintAccessStep{
		BaseStep:  step.NewBaseStep(name, "Show access information"),
		Component: component,
		Entries:   entries,
	}
}

func (s *PrintAccessStep) Init(rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(rt, log); err != nil {
		return err
	}
	s.rendered = s.rendered[:0]
	for _, e := range s.Entries {
		r, err := rt.Render(e)
		if err != nil {
			return fmt.Errorf("render access entry %q: %w", e, err)
		}
		s.rendered = append(s.rendered, r)
	}
	return nil
}

func (s *PrintAccessStep) Execute(_ context.Context, rt runtime.Runtime, _ *logrus.Entry) (string, bool, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is available at:\n", s.Component)
	for _, r := range s.rendered {
		fmt.Fprintf(&b, "  %s\n", r)
	}
	fmt.Fprint(rt.Out(), b.String())
	return b.String(), true, nil
}

var (
	_ step.Step = (*CheckPrerequisitesStep)(nil)
	_ step.Step = (*PrintAccessStep)(nil)
)
