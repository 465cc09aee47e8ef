package adb

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxErrOutput caps stderr quoted in errors.
const maxErrOutput = 4 * 1024

// Runner executes one adb invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs the adb binary found at Path.
type ExecRunner struct {
	Path    string
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	path := r.Path
	if path == "" {
		path = "adb"
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxErrOutput {
			msg = msg[:maxErrOutput] + "... [truncated]"
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), fmt.Errorf("adb %s: exit %d: %s", strings.Join(args, " "), exitErr.ExitCode(), msg)
		}
		return stdout.String(), fmt.Errorf("adb %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
