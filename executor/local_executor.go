package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/mensylisir/xmstack/common"
)

// localExecutor implements the Executor interface for local machine operations.
type localExecutor struct {
	shell string
	stdin io.Reader
	env   []string
}

// Option configures a local executor.
type Option func(*localExecutor)

// WithShell overrides the shell used to interpret commands.
func WithShell(shell string) Option {
	return func(l *localExecutor) {
		l.shell = shell
	}
}

// WithStdin connects streamed commands to r, usually os.Stdin.
// Captured commands never read stdin.
func WithStdin(r io.Reader) Option {
	return func(l *localExecutor) {
		l.stdin = r
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(l *localExecutor) {
		l.env = append(l.env, env...)
	}
}

// NewLocalExecutor creates a new Executor for local operations.
func NewLocalExecutor(opts ...Option) Executor {
	l := &localExecutor{shell: common.DefaultShell}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *localExecutor) command(ctx context.Context, command string) (*exec.Cmd, error) {
	if command == "" {
		return nil, fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, l.shell, "-c", command)
	if len(l.env) > 0 {
		cmd.Env = append(os.Environ(), l.env...)
	}
	return cmd, nil
}

// exitStatus separates "ran and exited non-zero" from "could not run".
func exitStatus(command string, err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code, nil
		}
		// Killed by a signal, most likely the context.
		return 1, fmt.Errorf("command '%s' terminated: %w", command, err)
	}
	return 1, fmt.Errorf("failed to run command '%s': %w", command, err)
}

func (l *localExecutor) Execute(ctx context.Context, command string) (string, string, int, error) {
	cmd, err := l.command(ctx, command)
	if err != nil {
		return "", "", 1, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode, err := exitStatus(command, cmd.Run())
	return stdout.String(), stderr.String(), exitCode, err
}

func (l *localExecutor) Stream(ctx context.Context, command string, stdout, stderr io.Writer) (string, int, error) {
	cmd, err := l.command(ctx, command)
	if err != nil {
		return "", 1, err
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	captured := &lockedBuffer{}
	cmd.Stdout = io.MultiWriter(stdout, captured)
	cmd.Stderr = io.MultiWriter(stderr, captured)
	cmd.Stdin = l.stdin

	exitCode, err := exitStatus(command, cmd.Run())
	return captured.String(), exitCode, err
}

func (l *localExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (l *localExecutor) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (l *localExecutor) CreateDirectory(path string, permissions os.FileMode) error {
	return os.MkdirAll(path, permissions)
}

func (l *localExecutor) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// lockedBuffer lets stdout and stderr copy goroutines share one capture.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
