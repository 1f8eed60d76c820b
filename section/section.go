// Package section groups steps under a display name and icon.
package section

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/step"
	"github.com/mensylisir/xmstack/step/runcmd"
)

// Section is an ordered, named group of steps.
type Section struct {
	name  string
	icon  string
	steps []step.Step
}

// NewSection creates an empty Section. Steps are added with AddStep.
func NewSection(name, icon string) *Section {
	return &Section{
		name:  name,
		icon:  icon,
		steps: make([]step.Step, 0),
	}
}

// Builder makes the step of one configured entry.
type Builder func(config.StepSpec) step.Step

// CommandStep builds a shell command step.
func CommandStep(spec config.StepSpec) step.Step {
	return runcmd.FromSpec(spec)
}

// FromSpec builds a section, making each step with build.
func FromSpec(spec config.SectionSpec, build Builder) *Section {
	s := NewSection(spec.Name, spec.Icon)
	for _, st := range spec.Steps {
		s.AddStep(build(st))
	}
	return s
}

// FromConfig builds every configured section in order.
func FromConfig(cfg *config.ConsoleConfig, build Builder) []*Section {
	sections := make([]*Section, 0, len(cfg.Spec.Sections))
	for _, spec := range cfg.Spec.Sections {
		sections = append(sections, FromSpec(spec, build))
	}
	return sections
}

// Select returns the named sections in the order given, or all of them
// when names is empty.
func Select(sections []*Section, names ...string) ([]*Section, error) {
	if len(names) == 0 {
		return sections, nil
	}
	selected := make([]*Section, 0, len(names))
	for _, name := range names {
		found := false
		for _, s := range sections {
			if s.Name() == name {
				selected = append(selected, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown section %q", name)
		}
	}
	return selected, nil
}

// Name returns the name of the section.
func (s *Section) Name() string {
	return s.name
}

// Icon returns the display icon, possibly empty.
func (s *Section) Icon() string {
	return s.icon
}

// Title is the icon and name as shown in menus.
func (s *Section) Title() string {
	if s.icon == "" {
		return s.name
	}
	return s.icon + " " + s.name
}

// Steps returns a copy of the steps.
func (s *Section) Steps() []step.Step {
	out := make([]step.Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Len is the number of steps.
func (s *Section) Len() int {
	return len(s.steps)
}

// AddStep appends a step.
func (s *Section) AddStep(st step.Step) {
	s.steps = append(s.steps, st)
}

// Only returns a section holding just the i-th step.
func (s *Section) Only(i int) (*Section, error) {
	if i < 0 || i >= len(s.steps) {
		return nil, fmt.Errorf("section %s has no step %d", s.name, i+1)
	}
	one := NewSection(s.name, s.icon)
	one.AddStep(s.steps[i])
	return one, nil
}

// Init initializes every step up front, so a template or manifest error
// surfaces before anything runs.
func (s *Section) Init(rt runtime.Runtime, log *logrus.Entry) error {
	log.Debugf("initializing %d steps", len(s.steps))
	for i, st := range s.steps {
		stepLog := logger.ForStep(log, st.Name(), i, len(s.steps))
		if err := st.Init(rt, stepLog); err != nil {
			return fmt.Errorf("failed to initialize step %s (index %d) in section %s: %w", st.Name(), i, s.name, err)
		}
	}
	return nil
}
