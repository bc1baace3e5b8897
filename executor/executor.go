// Package executor runs external commands for the summarizer and speech backends.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Executor runs a command and returns its stdout.
type Executor interface {
	// Execute runs name with args. When stdin is non-nil it is piped to the
	// process. A cancelled or expired ctx kills the process.
	Execute(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error)
}

type implExecutor struct{}

// New returns the os/exec backed Executor.
func New() Executor { return implExecutor{} }

func (implExecutor) Execute(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("command '%s' timed out: %w", name, ctx.Err())
		}
		// Include stderr in error message for debugging
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, s)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}
	return stdout.String(), nil
}

// Func adapts a function to Executor. Handy for tests and for wrapping.
type Func func(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error)

func (f Func) Execute(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error) {
	return f(ctx, stdin, name, args...)
}
