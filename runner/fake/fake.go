// Package fake provides a scripted runner.Runner for tests.
package fake

import (
	"context"
	"io"
	"sync"

	"github.com/mensylisir/xmstack/runner"
	"github.com/mensylisir/xmstack/util"
)

// Result is what one command invocation returns.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Fail is a Result with exit code 1 and the given stderr.
func Fail(stderr string) Result {
	return Result{Stderr: stderr, ExitCode: 1}
}

// Runner replays scripted results per command and records every call.
// Unscripted commands succeed with empty output.
type Runner struct {
	mu      sync.Mutex
	scripts map[string][]Result
	calls   []string
}

var _ runner.Runner = (*Runner)(nil)

// New returns an empty Runner.
func New() *Runner {
	return &Runner{scripts: make(map[string][]Result)}
}

// On scripts the results of command. Results are consumed in order and the
// last one repeats.
func (f *Runner) On(command string, results ...Result) *Runner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[command] = append(f.scripts[command], results...)
	return f
}

func (f *Runner) next(command string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, command)
	queue := f.scripts[command]
	switch len(queue) {
	case 0:
		return Result{}
	case 1:
		return queue[0]
	default:
		f.scripts[command] = queue[1:]
		return queue[0]
	}
}

// Calls returns the commands run so far, sudo ones already wrapped.
func (f *Runner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns how often command was run.
func (f *Runner) Count(command string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == command {
			n++
		}
	}
	return n
}

func (f *Runner) Run(_ context.Context, command string) (string, string, int, error) {
	r := f.next(command)
	return r.Stdout, r.Stderr, r.ExitCode, r.Err
}

func (f *Runner) SudoRun(ctx context.Context, command string) (string, string, int, error) {
	return f.Run(ctx, runner.SudoCommand(command))
}

func (f *Runner) Stream(_ context.Context, command string, stdout, stderr io.Writer) (string, int, error) {
	r := f.next(command)
	if stdout != nil {
		_, _ = io.WriteString(stdout, r.Stdout)
	}
	if stderr != nil {
		_, _ = io.WriteString(stderr, r.Stderr)
	}
	return r.Stdout + r.Stderr, r.ExitCode, r.Err
}

func (f *Runner) Check(ctx context.Context, command string) error {
	stdout, stderr, exitCode, err := f.Run(ctx, command)
	return runner.CommandError(command, util.FirstNonEmpty(stderr, stdout), exitCode, err)
}
