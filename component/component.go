// Package component turns catalog entries into deploy and cleanup sections
// and runs them unattended.
package component

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/image"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/pipeline"
	"github.com/mensylisir/xmstack/pipeline/ending"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/section"
	"github.com/mensylisir/xmstack/step/containerimage"
	"github.com/mensylisir/xmstack/step/host"
	"github.com/mensylisir/xmstack/step/manifest"
	"github.com/mensylisir/xmstack/step/readiness"
)

// Action is what to do with a component.
type Action string

const (
	ActionDeploy  Action = config.ActionDeploy
	ActionCleanup Action = config.ActionCleanup
)

// Actions lists the supported actions, default first.
var Actions = []Action{ActionDeploy, ActionCleanup}

// ParseAction maps a command word to an Action. The empty string is deploy.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case "", ActionDeploy:
		return ActionDeploy, nil
	case ActionCleanup:
		return ActionCleanup, nil
	}
	return "", fmt.Errorf("unknown action %q (want deploy or cleanup)", s)
}

// Component is one catalog entry.
type Component struct {
	spec config.ComponentSpec
}

// New wraps spec.
func New(spec config.ComponentSpec) *Component {
	return &Component{spec: spec}
}

// Lookup finds a component in the configuration.
func Lookup(cfg *config.ConsoleConfig, name string) (*Component, error) {
	spec, ok := cfg.ComponentByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown component %q", name)
	}
	return New(spec), nil
}

func (c *Component) Name() string {
	return c.spec.Name
}

func (c *Component) Description() string {
	return c.spec.Description
}

func (c *Component) Spec() config.ComponentSpec {
	return c.spec
}

// DeploySection checks prerequisites, transfers the image, applies the
// manifests, waits for readiness and prints the access URLs. Parts the
// entry does not declare are left out.
func (c *Component) DeploySection() *section.Section {
	s := section.NewSection(c.spec.Name+" deploy", "")
	if len(c.spec.Prerequisites) > 0 {
		s.AddStep(host.NewCheckPrerequisitesStep("Check prerequisites", c.spec.Prerequisites))
	}
	if c.spec.Image.Ref != "" {
		s.AddStep(containerimage.NewTransferImageStep("Transfer image", image.Request{
			Ref:  c.spec.Image.Ref,
			Pull: c.spec.Image.Pull,
			Sudo: c.spec.SudoImport,
		}))
	}
	if len(c.spec.Manifests) > 0 {
		s.AddStep(manifest.NewApplyManifestsStep("Apply manifests", c.spec.Manifests, c.spec.Namespace))
	}
	if c.spec.Readiness != nil {
		s.AddStep(readiness.NewWaitReadyStep("Wait for readiness", *c.spec.Readiness, c.spec.Namespace))
	}
	if len(c.spec.Access) > 0 {
		s.AddStep(host.NewPrintAccessStep("Print access", c.spec.Name, c.spec.Access))
	}
	return s
}

// CleanupSection deletes the manifests in reverse order and drops the
// cached image archive.
func (c *Component) CleanupSection() *section.Section {
	s := section.NewSection(c.spec.Name+" cleanup", "")
	if len(c.spec.Manifests) > 0 {
		s.AddStep(manifest.NewDeleteManifestsStep("Delete manifests", c.spec.Manifests, c.spec.Namespace))
	}
	if c.spec.Image.Ref != "" {
		s.AddStep(containerimage.NewForgetImageStep("Forget image", c.spec.Image.Ref))
	}
	return s
}

// Section returns the section for action.
func (c *Component) Section(action Action) (*section.Section, error) {
	switch action {
	case ActionDeploy:
		return c.DeploySection(), nil
	case ActionCleanup:
		return c.CleanupSection(), nil
	}
	return nil, fmt.Errorf("unknown action %q", action)
}

// Run performs action, aborting at the first failed step. A step that
// cannot be initialized fails the whole action before anything runs.
func (c *Component) Run(ctx context.Context, rt runtime.Runtime, log *logrus.Entry, action Action) (*ending.SequenceResult, error) {
	s, err := c.Section(action)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, rt, log, action, s)
}

func (c *Component) run(ctx context.Context, rt runtime.Runtime, log *logrus.Entry, action Action, s *section.Section) (*ending.SequenceResult, error) {
	log = logger.ForComponent(log, c.spec.Name).WithField("action", string(action))
	log.Infof("%s %s", action, c.spec.Name)

	res, err := pipeline.NewExecutor(rt, pipeline.Unattended(pipeline.AbortOnFailure)).
		Run(ctx, log, s.Name(), s)
	if err != nil {
		return nil, err
	}
	rt.Metrics().ComponentFinished(c.spec.Name, string(action), res.Succeeded())
	if !res.Succeeded() {
		log.Errorf("%s of %s failed: %v", action, c.spec.Name, res.CombinedError())
	}
	return res, nil
}
