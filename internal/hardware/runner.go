package hardware

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Outcome says how an external tool invocation finished. Dispatching on an
// explicit reason code keeps fallback decisions out of error-type matching.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeExitError
	OutcomeToolMissing
	OutcomeTimedOut
)

// RunOutput is the uniform result of one tool invocation.
type RunOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Outcome  Outcome
	Err      error
}

// Runner executes an external tool, bounded by timeout, in dir (empty dir
// means the current directory). Implemented by execRunner in production and
// by fakes in tests.
type Runner interface {
	Run(dir string, timeout time.Duration, name string, args ...string) RunOutput
}

type execRunner struct{}

func (execRunner) Run(dir string, timeout time.Duration, name string, args ...string) RunOutput {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := RunOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}

	switch {
	case err == nil:
		out.Outcome = OutcomeOK
	case ctx.Err() == context.DeadlineExceeded:
		out.Outcome = OutcomeTimedOut
	case errors.Is(err, exec.ErrNotFound):
		out.Outcome = OutcomeToolMissing
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
		}
		out.Outcome = OutcomeExitError
	}
	return out
}
