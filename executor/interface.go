package executor

import (
	"context"
	"io"
	"os"
)

// Executor runs shell commands and inspects files on the node being
// provisioned. Commands are opaque strings interpreted by the shell.
type Executor interface {
	// Execute runs command and captures stdout and stderr separately.
	// A non-zero exit is reported through exitCode with a nil error;
	// err is set only when the command could not be run at all.
	Execute(ctx context.Context, command string) (stdout string, stderr string, exitCode int, err error)

	// Stream runs command with its output copied live to stdout and stderr
	// while also capturing the combined output, which is returned.
	// Error semantics match Execute.
	Stream(ctx context.Context, command string, stdout, stderr io.Writer) (output string, exitCode int, err error)

	// LookPath reports where an executable lives in PATH.
	LookPath(name string) (string, error)

	// FileExists checks if a regular file exists.
	FileExists(path string) (bool, error)

	// CreateDirectory creates a directory and its parents.
	CreateDirectory(path string, permissions os.FileMode) error

	// RemoveFile deletes a file. A missing file is not an error.
	RemoveFile(path string) error
}
