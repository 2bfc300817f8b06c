//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/oshokin/superbinary-trigger/internal/logger"
)

// ErrCommandFailed wraps every failed subprocess.
var ErrCommandFailed = errors.New("command failed")

// Runner executes external commands to completion.
type Runner interface {
	// Run executes the command with its output streamed to the operator.
	Run(ctx context.Context, dir, name string, args ...string) error
	// CombinedOutput executes the command and returns stdout and stderr interleaved.
	// The output is returned even when the command fails.
	CombinedOutput(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner is a Runner backed by os/exec.
type ExecRunner struct {
	// Stdout receives streamed and echoed command output.
	Stdout io.Writer
	// Stderr receives streamed command errors.
	Stderr io.Writer
}

// NewExecRunner creates a runner wired to the process stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := r.command(ctx, dir, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, JoinArgs(cmd.Args), err)
	}

	return nil
}

// CombinedOutput implements Runner. The captured output is echoed to Stdout.
func (r *ExecRunner) CombinedOutput(ctx context.Context, dir, name string, args ...string) (string, error) {
	var buf bytes.Buffer

	cmd := r.command(ctx, dir, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	out := buf.String()

	if r.Stdout != nil {
		_, _ = io.WriteString(r.Stdout, out)
	}

	if err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrCommandFailed, JoinArgs(cmd.Args), err)
	}

	return out, nil
}

func (r *ExecRunner) command(ctx context.Context, dir, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	logger.InfoKV(ctx, "Executing subprocess", "command", JoinArgs(cmd.Args), "dir", dir)

	return cmd
}

// JoinArgs renders a command line for logs, quoting arguments that contain spaces.
func JoinArgs(args []string) string {
	quoted := make([]string, len(args))

	for i, arg := range args {
		if strings.Contains(arg, " ") {
			arg = `"` + arg + `"`
		}

		quoted[i] = arg
	}

	return strings.Join(quoted, " ")
}
