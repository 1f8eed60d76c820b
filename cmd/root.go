// Package cmd is the xmstack command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/component"
	"github.com/mensylisir/xmstack/config"
	"github.com/mensylisir/xmstack/logger"
	"github.com/mensylisir/xmstack/menu"
	"github.com/mensylisir/xmstack/runtime"
	"github.com/mensylisir/xmstack/section"
	"github.com/mensylisir/xmstack/util"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping...")
		cancel()
	}()

	if err := NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, menu.ErrorMsg("%v", err))
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree over the given streams.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	args := runtime.NewCliArgs()

	root := &cobra.Command{
		Use:   common.AppName,
		Short: "Install a catalog of services onto a single-node k0s cluster",
		Long: `xmstack installs a catalog of container images (Kafka, Elasticsearch,
Traefik, Prometheus, ksqlDB, Schema Registry, ...) onto a single-node k0s
cluster. Without a subcommand it opens the interactive console.

The built-in catalog ships its own manifests. A configuration file passed
with --config resolves manifest globs relative to its own directory, for
example manifests/<component>/*.yaml next to the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initLogging(args)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, args)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&args.ConfigPath, "config", "c", "", "console configuration file (default: the embedded configuration)")
	flags.StringVar(&args.EnvFile, "env-file", "", "dotenv file loaded before the configuration is expanded")
	flags.StringVar(&args.LogLevel, "log-level", args.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.BoolVarP(&args.Verbose, "verbose", "v", false, "verbose logging, shorthand for --log-level=debug")
	flags.StringVar(&args.LogDir, "log-dir", "", "write logs to a daily rotated file in this directory")
	flags.StringVar(&args.Kubeconfig, "kubeconfig", "", "kubeconfig file (default: settings.kubeconfig, $KUBECONFIG, ~/.kube/config, the k0s admin.conf)")
	flags.StringVar(&args.WorkDir, "work-dir", "", "working directory for relative paths (default: current directory)")
	flags.StringVar(&args.MetricsTextfile, "metrics-textfile", "", "write run metrics to this node-exporter textfile when done")
	flags.BoolVar(&args.NoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newConsoleCommand(args),
		newRunCommand(args),
		newComponentCommand(args),
		newListCommand(args),
		newValidateCommand(args),
	)
	return root
}

func initLogging(args *runtime.CliArgs) error {
	level, err := logrus.ParseLevel(args.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", args.LogLevel, err)
	}
	if err := logger.InitGlobalLogger(args.LogDir, args.Verbose, level); err != nil {
		return err
	}
	menu.ConfigureColor(args.NoColor)
	return nil
}

func loadConfig(args *runtime.CliArgs) (*config.ConsoleConfig, error) {
	return config.NewLoader(args.ConfigPath,
		config.WithEnvFile(args.EnvFile),
		config.WithWorkDir(args.WorkDir),
	).Load()
}

// commandInput returns the stdin handed to step commands. A file (the
// terminal) is inherited by the child directly; any other reader belongs to
// the console prompts alone, since exec would copy it to the child ahead of
// the next answer.
func commandInput(in io.Reader) io.Reader {
	if f, ok := in.(*os.File); ok {
		return f
	}
	return nil
}

// session is the runtime of one command invocation.
type session struct {
	rt   *runtime.ConsoleRuntime
	log  *logrus.Entry
	args *runtime.CliArgs
}

func newSession(cmd *cobra.Command, args *runtime.CliArgs) (*session, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log := logger.Log.ForRun(runID)
	rt, err := runtime.NewRuntime(runtime.Config{
		Console:    cfg,
		In:         commandInput(cmd.InOrStdin()),
		Out:        cmd.OutOrStdout(),
		ErrOut:     cmd.ErrOrStderr(),
		WorkDir:    args.WorkDir,
		Verbose:    args.Verbose,
		Kubeconfig: args.Kubeconfig,
		RunID:      runID,
		Log:        log,
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("configuration %s loaded from %s", cfg.Metadata.Name, cfg.BaseDir())
	return &session{rt: rt, log: log, args: args}, nil
}

// sections builds the configured sections and initializes every step, so
// an unknown variable or a missing manifest stops the command before
// anything runs. Errors of all sections are reported together.
func (s *session) sections() ([]*section.Section, error) {
	sections := section.FromConfig(s.rt.Config(), component.BuildStep)
	var errs []error
	for _, sec := range sections {
		errs = append(errs, sec.Init(s.rt, logger.ForSection(s.log, sec.Name())))
	}
	if err := util.CombineErrors(errs...); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	return sections, nil
}

// close writes the metrics textfile when one was requested.
func (s *session) close() {
	if s.args.MetricsTextfile == "" {
		return
	}
	if err := s.rt.Metrics().WriteTextfile(s.args.MetricsTextfile); err != nil {
		s.log.Warnf("failed to write metrics textfile: %v", err)
	}
}
