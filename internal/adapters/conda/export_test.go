package conda

import (
	"context"
	"os/exec"
	"time"

	"go.trai.ch/lockforge/internal/core/domain"
)

// NewExecRunnerWithCommand creates a runner whose subprocess is built by command.
func NewExecRunnerWithCommand(
	executable string,
	timeout time.Duration,
	command func(ctx context.Context, name string, args ...string) *exec.Cmd,
) *ExecRunner {
	r := NewExecRunner(executable, timeout)
	r.command = command
	return r
}

// NewFactoryWithLookPath creates a factory with a substitute PATH lookup.
func NewFactoryWithLookPath(f *Factory, lookPath func(string) (string, error)) *Factory {
	f.lookPath = lookPath
	return f
}

// MatchSpec exposes matchSpec for testing.
func MatchSpec(dep domain.Dependency) string { return matchSpec(dep) }

// ChannelArgs exposes channelArgs for testing.
func ChannelArgs(channels []string, platform string) []string { return channelArgs(channels, platform) }

// FailureMessage exposes failureMessage for testing.
func FailureMessage(stdout []byte) string { return failureMessage(stdout) }

// MergeEnv exposes mergeEnv for testing.
func MergeEnv(base []string, overrides map[string]string) []string { return mergeEnv(base, overrides) }

// VirtualOverrides exposes virtualOverrides for testing.
func VirtualOverrides(virtual []domain.VirtualPackage) map[string]string { return virtualOverrides(virtual) }

// MetaRecord mirrors the conda-meta entry written for a locked package.
type MetaRecord = metaRecord

// RecordFor exposes recordFor for testing.
func RecordFor(dep domain.LockedDependency) (MetaRecord, string, error) { return recordFor(dep) }
