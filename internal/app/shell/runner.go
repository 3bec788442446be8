// Package shell implements the privileged remote-command channel:
// per-actor interactive sessions with a working directory, one-off
// admin execution, and allow-listed aliases open to any caller.
// Commands run through a real shell interpreter; this is a deliberate
// trust boundary, not a sandbox.
package shell

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/powergram/powergram/internal/domain"
	"github.com/powergram/powergram/internal/infra/metrics"
)

// Result is the outcome of one command execution.
type Result struct {
	Output   string // combined stdout+stderr, interleaved
	ExitCode int
}

// Runner executes a shell command line in a working directory under a
// wall-clock timeout. On timeout the underlying process must be
// terminated, not abandoned, and domain.ErrTimedOut returned.
type Runner interface {
	Run(ctx context.Context, command, dir string, timeout time.Duration) (Result, error)
}

// ExecRunner runs commands through /bin/sh -c. The command gets its
// own process group so a timeout kills the whole pipeline.
type ExecRunner struct{}

// Run executes command with dir as working directory (empty = process
// default). Non-zero exits are reported in Result, not as errors.
func (ExecRunner) Run(ctx context.Context, command, dir string, timeout time.Duration) (Result, error) {
	runID := uuid.NewString()[:8]

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		log.Printf("[shell] run %s timed out after %s", runID, timeout)
		metrics.CommandTimeouts.Inc()
		return Result{Output: buf.String()}, domain.ErrTimedOut
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Could not even start (bad dir, missing shell)
			return Result{Output: buf.String()}, err
		}
		exitCode = exitErr.ExitCode()
	}

	log.Printf("[shell] run %s exit=%d", runID, exitCode)
	return Result{Output: buf.String(), ExitCode: exitCode}, nil
}
