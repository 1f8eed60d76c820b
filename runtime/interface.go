package runtime

import (
	"io"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/image"
	"github.com/mensylisir/xmstack/kube"
	"github.com/mensylisir/xmstack/metrics"
	"github.com/mensylisir/xmstack/poll"
	"github.com/mensylisir/xmstack/runner"
	"github.com/mensylisir/xmstack/util"
)

// Runtime is the execution context every step receives.
type Runtime interface {
	// Config returns the loaded console configuration.
	Config() *config.ConsoleConfig

	// Runner executes shell commands on the local node.
	Runner() runner.Runner

	// Validator polls readiness checks at the configured interval.
	Validator() *poll.Validator

	// Vars returns the template variables available to commands and URLs.
	Vars() util.Data

	// Render expands a template string with Vars.
	Render(tmpl string) (string, error)

	// Out and ErrOut are the operator's terminal streams.
	Out() io.Writer
	ErrOut() io.Writer

	WorkDir() string
	RunID() string
	Verbose() bool

	// KubeClient connects to the cluster on first use.
	KubeClient() (*kube.Client, error)

	// Images connects to the docker daemon on first use.
	Images() (*image.Transferrer, error)

	Metrics() *metrics.Recorder
}
