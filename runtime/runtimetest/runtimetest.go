// Package runtimetest builds a runtime.ConsoleRuntime wired to fakes.
package runtimetest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/image"
	"github.com/mensylisir/xmstack/kube"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/poll"
	"github.com/mensylisir/xmstack/runner/fake"
	"github.com/mensylisir/xmstack/runtime"
)

// HostIP is the hostIP variable every test runtime renders with.
const HostIP = "10.0.0.5"

// Harness exposes the fakes behind a test runtime.
type Harness struct {
	RT     *runtime.ConsoleRuntime
	Runner *fake.Runner
	Out    *bytes.Buffer
}

// Option tweaks the runtime.Config before the runtime is built.
type Option func(*runtime.Config)

// WithConsole replaces the empty default console configuration.
func WithConsole(c *config.ConsoleConfig) Option {
	return func(cfg *runtime.Config) { cfg.Console = c }
}

// WithKube injects a kube client.
func WithKube(c *kube.Client) Option {
	return func(cfg *runtime.Config) { cfg.KubeClient = c }
}

// WithImages injects an image transferrer.
func WithImages(t *image.Transferrer) Option {
	return func(cfg *runtime.Config) { cfg.Images = t }
}

// New returns a runtime whose commands go to a fake runner, whose output
// is buffered and whose validator polls every millisecond.
func New(t *testing.T, opts ...Option) Harness {
	t.Helper()
	console := &config.ConsoleConfig{Kind: config.KindConsole, Metadata: config.MetadataSpec{Name: "test"}}
	console.Spec.Variables = map[string]string{"hostIP": HostIP}
	config.SetDefaults(console)

	r := fake.New()
	out := &bytes.Buffer{}
	cfg := runtime.Config{
		Console:   console,
		Runner:    r,
		Validator: poll.NewValidator(poll.WithInterval(time.Millisecond)),
		Out:       out,
		ErrOut:    out,
		WorkDir:   t.TempDir(),
		RunID:     "test-run",
		Log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	rt, err := runtime.NewRuntime(cfg)
	require.NoError(t, err)
	return Harness{RT: rt, Runner: r, Out: out}
}
