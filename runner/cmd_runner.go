package runner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/common"
	"github.com/mensylisir/xmstack/executor"
	"github.com/mensylisir/xmstack/util"
)

// maxErrorDetail bounds how much stderr ends up inside an error message.
const maxErrorDetail = 512

// cmdRunner implements the Runner interface on top of an executor.Executor.
type cmdRunner struct {
	exec executor.Executor
	log  *logrus.Entry
}

// NewCmdRunner creates a new Runner that uses the given executor for command execution.
func NewCmdRunner(exec executor.Executor, log *logrus.Entry) Runner {
	return &cmdRunner{exec: exec, log: log}
}

// SudoCommand wraps a command with sudo, keeping the caller's environment.
func SudoCommand(command string) string {
	escapedCommand := strings.ReplaceAll(command, `\`, `\\`)
	escapedCommand = strings.ReplaceAll(escapedCommand, `"`, `\"`)
	return fmt.Sprintf(common.SudoCmdTpl, escapedCommand)
}

// Run executes a command using the underlying executor.
func (r *cmdRunner) Run(ctx context.Context, command string) (string, string, int, error) {
	r.log.Debugf("run: %s", command)
	return r.exec.Execute(ctx, command)
}

// SudoRun executes a command with superuser privileges.
func (r *cmdRunner) SudoRun(ctx context.Context, command string) (string, string, int, error) {
	r.log.Debugf("sudo run: %s", command)
	return r.exec.Execute(ctx, SudoCommand(command))
}

// Stream executes a command with live output.
func (r *cmdRunner) Stream(ctx context.Context, command string, stdout, stderr io.Writer) (string, int, error) {
	r.log.Debugf("stream: %s", command)
	return r.exec.Stream(ctx, command, stdout, stderr)
}

// Check runs command quietly and classifies the outcome.
func (r *cmdRunner) Check(ctx context.Context, command string) error {
	stdout, stderr, exitCode, err := r.Run(ctx, command)
	return CommandError(command, util.FirstNonEmpty(stderr, stdout), exitCode, err)
}

// CommandError turns an execution outcome into nil or an error wrapping
// common.ErrInvocation that names the command, exit code and output tail.
func CommandError(command, output string, exitCode int, err error) error {
	detail := util.TruncateString(strings.TrimSpace(output), maxErrorDetail, "...")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrInvocation, command, err)
	}
	if exitCode != 0 {
		if detail == "" {
			return fmt.Errorf("%w: '%s' exited with code %d", common.ErrInvocation, command, exitCode)
		}
		return fmt.Errorf("%w: '%s' exited with code %d: %s", common.ErrInvocation, command, exitCode, detail)
	}
	return nil
}
