package conda

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Invocation is one call of the solver executable.
type Invocation struct {
	Platform string
	Args     []string
	// Env overrides variables of the inherited environment for this call only.
	Env map[string]string
}

// Runner executes the solver and returns its standard output.
// A non-zero exit is reported as *ExitError carrying the captured output.
type Runner interface {
	Run(ctx context.Context, inv Invocation) ([]byte, error)
}

// ExitError is a solver run that exited with a non-zero status.
type ExitError struct {
	Code   int
	Stdout []byte
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("solver exited with status %d", e.Code)
}

// ExecRunner runs the solver as a subprocess.
type ExecRunner struct {
	executable string
	timeout    time.Duration
	command    func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewExecRunner creates a runner for executable. A zero timeout disables the limit.
func NewExecRunner(executable string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{executable: executable, timeout: timeout, command: exec.CommandContext}
}

// Run executes the invocation. Exceeding the timeout yields *domain.SolveTimeoutError.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) ([]byte, error) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := r.command(runCtx, r.executable, inv.Args...)
	base := cmd.Env
	if base == nil {
		base = os.Environ()
	}
	cmd.Env = mergeEnv(base, inv.Env)
	cmd.WaitDelay = 5 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	if ctx.Err() != nil {
		return nil, zerr.Wrap(ctx.Err(), "solver interrupted")
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &domain.SolveTimeoutError{Platform: inv.Platform, Timeout: r.timeout}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, &ExitError{Code: exitErr.ExitCode(), Stdout: out, Stderr: stderr.String()}
	}
	return nil, zerr.With(zerr.Wrap(err, "failed to run solver"), "executable", r.executable)
}

// mergeEnv applies overrides to base, replacing existing keys and appending new ones in sorted order.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		out = append(out, key+"="+overrides[key])
	}
	return out
}
