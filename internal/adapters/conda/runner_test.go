package conda_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockforge/internal/adapters/conda"
	"go.trai.ch/lockforge/internal/core/domain"
)

// mockExecCommand replaces the solver with a call to the test binary itself,
// invoking TestHelperProcess.
func mockExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	//nolint:gosec // Test helper calls
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

// TestHelperProcess is the fake solver.
func TestHelperProcess(_ *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "No command provided\n")
		os.Exit(2)
	}

	switch args[1] {
	case "info":
		_, _ = fmt.Fprintf(os.Stdout, `{"pkgs_dirs": [%q], "subdir": %q}`, os.Getenv("CONDA_PKGS_DIRS"), os.Getenv("CONDA_SUBDIR"))
		os.Exit(0)
	case "create":
		_, _ = fmt.Fprint(os.Stdout, `{"message": "nothing provides requested foo", "error": "PackagesNotFoundError"}`)
		_, _ = fmt.Fprint(os.Stderr, "solver log line")
		os.Exit(1)
	case "sleep":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	}
	os.Exit(0)
}

func newHelperRunner(timeout time.Duration) *conda.ExecRunner {
	return conda.NewExecRunnerWithCommand("conda", timeout, mockExecCommand)
}

func TestExecRunner_Success(t *testing.T) {
	r := newHelperRunner(0)

	out, err := r.Run(context.Background(), conda.Invocation{
		Platform: "linux-64",
		Args:     []string{"info", "--json"},
		Env:      map[string]string{"CONDA_PKGS_DIRS": "/opt/pkgs", "CONDA_SUBDIR": "linux-64"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pkgs_dirs": ["/opt/pkgs"], "subdir": "linux-64"}`, string(out))
}

func TestExecRunner_ExitError(t *testing.T) {
	r := newHelperRunner(0)

	_, err := r.Run(context.Background(), conda.Invocation{Platform: "linux-64", Args: []string{"create"}})
	require.Error(t, err)

	var exitErr *conda.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, string(exitErr.Stdout), "nothing provides requested foo")
	assert.Equal(t, "solver log line", exitErr.Stderr)
}

func TestExecRunner_Timeout(t *testing.T) {
	r := newHelperRunner(100 * time.Millisecond)

	start := time.Now()
	_, err := r.Run(context.Background(), conda.Invocation{Platform: "osx-arm64", Args: []string{"sleep"}})
	require.ErrorIs(t, err, domain.ErrSolveTimeout)
	assert.Less(t, time.Since(start), 9*time.Second)

	var timeoutErr *domain.SolveTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "osx-arm64", timeoutErr.Platform)
}

func TestExecRunner_Canceled(t *testing.T) {
	r := newHelperRunner(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, conda.Invocation{Platform: "linux-64", Args: []string{"sleep"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMergeEnv(t *testing.T) {
	got := conda.MergeEnv(
		[]string{"PATH=/bin", "CONDA_SUBDIR=win-64", "HOME=/root"},
		map[string]string{"CONDA_SUBDIR": "linux-64", "CONDA_OVERRIDE_CUDA": ""},
	)
	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "CONDA_OVERRIDE_CUDA=", "CONDA_SUBDIR=linux-64"}, got)
}
