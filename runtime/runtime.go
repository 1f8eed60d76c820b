package runtime

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/executor"
	"github.com/mensylisir/xmstack/image"
	"github.com/mensylisir/xmstack/ip"
	"github.com/mensylisir/xmstack/kube"
	"github.com/mensylisir/xmstack/metrics"
	"github.com/mensylisir/xmstack/poll"
	"github.com/mensylisir/xmstack/runner"
	"github.com/mensylisir/xmstack/util"
)

// Template variables every configuration can rely on.
const (
	VarHostIP  = "hostIP"
	VarSelf    = "xmstack"
	VarWorkDir = "workDir"
	VarRunID   = "runID"
)

// Config for creating a new ConsoleRuntime. Only Console is required;
// everything else has a working default. Tests inject fakes here.
type Config struct {
	Console    *config.ConsoleConfig
	Runner     runner.Runner
	Validator  *poll.Validator
	Metrics    *metrics.Recorder
	// In is handed to streamed commands as their standard input.
	In         io.Reader
	Out        io.Writer
	ErrOut     io.Writer
	WorkDir    string
	RunID      string
	Verbose    bool
	Kubeconfig string
	Log        *logrus.Entry

	// Pre-built clients; when nil they are created lazily.
	KubeClient *kube.Client
	Images     *image.Transferrer
}

// ConsoleRuntime implements Runtime for one console session.
type ConsoleRuntime struct {
	console    *config.ConsoleConfig
	runner     runner.Runner
	validator  *poll.Validator
	metrics    *metrics.Recorder
	out        io.Writer
	errOut     io.Writer
	workDir    string
	runID      string
	verbose    bool
	kubeconfig string
	vars       util.Data
	log        *logrus.Entry

	kubeOnce   sync.Once
	kubeClient *kube.Client
	kubeErr    error

	imagesOnce sync.Once
	images     *image.Transferrer
	imagesErr  error
}

var _ Runtime = (*ConsoleRuntime)(nil)

// NewRuntime creates a ConsoleRuntime.
func NewRuntime(cfg Config) (*ConsoleRuntime, error) {
	if cfg.Console == nil {
		return nil, fmt.Errorf("runtime: console configuration cannot be nil")
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("runtime: failed to determine working directory: %w", err)
		}
		cfg.WorkDir = wd
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.ErrOut == nil {
		cfg.ErrOut = os.Stderr
	}
	if cfg.Runner == nil {
		var opts []executor.Option
		if cfg.In != nil {
			opts = append(opts, executor.WithStdin(cfg.In))
		}
		cfg.Runner = runner.NewCmdRunner(executor.NewLocalExecutor(opts...), cfg.Log)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewRecorder(cfg.RunID)
	}
	if cfg.Validator == nil {
		cfg.Validator = poll.NewValidator(
			poll.WithInterval(cfg.Console.Spec.Settings.Interval()),
			poll.WithObserver(func(_ int, err error) { cfg.Metrics.ValidationAttempt(err) }),
		)
	}
	if cfg.Kubeconfig == "" {
		cfg.Kubeconfig = cfg.Console.Spec.Settings.Kubeconfig
	}

	rt := &ConsoleRuntime{
		console:    cfg.Console,
		runner:     cfg.Runner,
		validator:  cfg.Validator,
		metrics:    cfg.Metrics,
		out:        cfg.Out,
		errOut:     cfg.ErrOut,
		workDir:    cfg.WorkDir,
		runID:      cfg.RunID,
		verbose:    cfg.Verbose,
		kubeconfig: cfg.Kubeconfig,
		log:        cfg.Log,
		kubeClient: cfg.KubeClient,
		images:     cfg.Images,
	}
	rt.vars = rt.buildVars()
	return rt, nil
}

// buildVars merges the built-in variables under the configured ones, so a
// configuration can pin hostIP explicitly.
func (r *ConsoleRuntime) buildVars() util.Data {
	vars := util.Data{
		VarWorkDir: r.workDir,
		VarRunID:   r.runID,
		VarSelf:    "xmstack",
	}
	if self, err := os.Executable(); err == nil {
		vars[VarSelf] = self
	}
	if _, pinned := r.console.Spec.Variables[VarHostIP]; !pinned {
		if hostIP, err := ip.DiscoverLocalIP(); err == nil {
			vars[VarHostIP] = hostIP
		} else {
			r.log.Debugf("hostIP is not available to templates: %v", err)
		}
	}
	for k, v := range r.console.Spec.Variables {
		vars[k] = v
	}
	return vars
}

func (r *ConsoleRuntime) Config() *config.ConsoleConfig {
	return r.console
}

func (r *ConsoleRuntime) Runner() runner.Runner {
	return r.runner
}

func (r *ConsoleRuntime) Validator() *poll.Validator {
	return r.validator
}

func (r *ConsoleRuntime) Vars() util.Data {
	cp := make(util.Data, len(r.vars))
	for k, v := range r.vars {
		cp[k] = v
	}
	return cp
}

func (r *ConsoleRuntime) Render(tmpl string) (string, error) {
	return util.RenderString(tmpl, r.vars)
}

func (r *ConsoleRuntime) Out() io.Writer {
	return r.out
}

func (r *ConsoleRuntime) ErrOut() io.Writer {
	return r.errOut
}

func (r *ConsoleRuntime) WorkDir() string {
	return r.workDir
}

func (r *ConsoleRuntime) RunID() string {
	return r.runID
}

func (r *ConsoleRuntime) Verbose() bool {
	return r.verbose
}

func (r *ConsoleRuntime) Metrics() *metrics.Recorder {
	return r.metrics
}

func (r *ConsoleRuntime) KubeClient() (*kube.Client, error) {
	r.kubeOnce.Do(func() {
		if r.kubeClient != nil {
			return
		}
		restConfig, err := kube.BuildRestConfig(r.kubeconfig)
		if err != nil {
			r.kubeErr = err
			return
		}
		r.kubeClient, r.kubeErr = kube.NewForConfig(restConfig, r.console.Spec.Settings.FieldManager)
	})
	return r.kubeClient, r.kubeErr
}

func (r *ConsoleRuntime) Images() (*image.Transferrer, error) {
	r.imagesOnce.Do(func() {
		if r.images != nil {
			return
		}
		docker, err := image.Dial()
		if err != nil {
			r.imagesErr = err
			return
		}
		settings := r.console.Spec.Settings
		cacheDir := settings.ImageCacheDir
		if !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(r.workDir, cacheDir)
		}
		r.images = image.NewTransferrer(docker, r.runner, cacheDir, settings.ImageImportCommand)
	})
	return r.images, r.imagesErr
}
