package utils

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its combined output.
// Callers only look at the error; the output is carried for logging.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) (string, error)
}

// ShellRunner implements Runner using os/exec.
type ShellRunner struct{}

func (r *ShellRunner) Run(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), &ExitError{
			Bin:    bin,
			Args:   args,
			Status: exitStatus(err),
			Output: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}
	return string(out), nil
}

// ExitError is returned by ShellRunner when a command fails to start or exits non-zero.
// Status is -1 when the process never ran.
type ExitError struct {
	Bin    string
	Args   []string
	Status int
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s %s: %v: %s", e.Bin, strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *ExitError) Unwrap() error { return e.Err }

func exitStatus(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
