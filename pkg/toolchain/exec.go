package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/itohio/dhtfw/pkg/logger"
)

// Exec runs commands as real subprocesses. Output is passed through, not captured.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    logger.Logger
}

// NewExec creates a runner attached to the current process's stdio.
func NewExec(log logger.Logger) *Exec {
	return &Exec{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    log,
	}
}

// Run starts cmd and waits for it. A non-zero exit is returned as *ExitError.
// No timeout is applied; only ctx cancellation stops the process.
func (e *Exec) Run(ctx context.Context, cmd Command) error {
	if e.Log != nil {
		e.Log.Info("%s", cmd)
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Env = MergeEnv(os.Environ(), cmd.Env)
	c.Dir = cmd.Dir
	c.Stdin = e.Stdin
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr

	err := c.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return &ExitError{Command: cmd.Name, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("failed to run %s: %w", cmd.Name, err)
}
