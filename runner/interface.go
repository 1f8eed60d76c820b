package runner

import (
	"context"
	"io"
)

// Runner is the command-execution facility steps depend on: run a command,
// capture its output, succeed iff the exit code is 0.
type Runner interface {
	// Run executes a command and captures its output.
	// Returns stdout, stderr, exit code, and error.
	Run(ctx context.Context, command string) (stdout string, stderr string, exitCode int, err error)

	// SudoRun executes a command with superuser privileges.
	SudoRun(ctx context.Context, command string) (stdout string, stderr string, exitCode int, err error)

	// Stream executes a command with live output to the given writers and
	// returns the captured combined output.
	Stream(ctx context.Context, command string, stdout, stderr io.Writer) (output string, exitCode int, err error)

	// Check runs a command quietly and returns nil iff it exited 0. Any
	// other outcome is an error wrapping common.ErrInvocation.
	Check(ctx context.Context, command string) error
}
