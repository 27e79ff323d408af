package domain

import (
	"fmt"
	"time"

	"go.trai.ch/zerr"
)

var (
	// ErrEmptyInput is returned when aggregated specifications declare no dependencies and no platforms.
	ErrEmptyInput = zerr.New("specification has no dependencies and no platforms")

	// ErrChannelConflict is returned when two channel lists cannot be unified without reordering.
	ErrChannelConflict = zerr.New("channel lists have incompatible priorities")

	// ErrSolveFailed is returned when the native solver exits unsuccessfully.
	ErrSolveFailed = zerr.New("native solver failed")

	// ErrSolveTimeout is returned when the native solver exceeds its time budget.
	ErrSolveTimeout = zerr.New("native solver timed out")

	// ErrMalformedPlan is returned when solver output cannot be decoded.
	ErrMalformedPlan = zerr.New("malformed solver output")

	// ErrMissingCacheRecord is returned when a linked package has no cached repodata record.
	ErrMissingCacheRecord = zerr.New("missing package cache record")

	// ErrIncompletePlan is returned when a plan links a package without a usable fetch record.
	ErrIncompletePlan = zerr.New("install plan is incomplete")

	// ErrPinConflict is returned when a pin file already exists in a synthetic prior environment.
	ErrPinConflict = zerr.New("pin file already exists")

	// ErrArtifactResolution is returned when no registry artifact satisfies a managed requirement.
	ErrArtifactResolution = zerr.New("no compatible artifact")

	// ErrInternalConsistency is returned when merged results disagree about a package.
	ErrInternalConsistency = zerr.New("conflicting lock entries")

	// ErrLockFailed is returned when at least one platform failed to lock.
	ErrLockFailed = zerr.New("lock failed")

	// ErrInvalidRequirement is returned when a requirement string cannot be parsed.
	ErrInvalidRequirement = zerr.New("invalid requirement")

	// ErrUnsupportedSpecFile is returned when no parser handles the given input file.
	ErrUnsupportedSpecFile = zerr.New("unsupported specification file")

	// ErrMalformedLock is returned when a lock file cannot be decoded.
	ErrMalformedLock = zerr.New("malformed lock file")

	// ErrLockNotFound is returned when a command needs an existing lock and none is present.
	ErrLockNotFound = zerr.New("lock file not found")

	// ErrUnsupportedKind is returned for an unknown output kind.
	ErrUnsupportedKind = zerr.New("unsupported output kind")

	// ErrUnknownPlatform is returned when a platform has no entries in a lock.
	ErrUnknownPlatform = zerr.New("platform not present in lock")

	// ErrInvalidVirtualPackage is returned when a virtual package override is not a version.
	ErrInvalidVirtualPackage = zerr.New("invalid virtual package version")
)

// SolveError reports a native solver failure for one platform.
type SolveError struct {
	Platform string
	Message  string
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("could not solve for platform %s: %s", e.Platform, e.Message)
}

// Unwrap returns ErrSolveFailed.
func (e *SolveError) Unwrap() error { return ErrSolveFailed }

// SolveTimeoutError reports that the solver was stopped after exceeding its budget.
type SolveTimeoutError struct {
	Platform string
	Timeout  time.Duration
}

func (e *SolveTimeoutError) Error() string {
	return fmt.Sprintf("solver for platform %s exceeded %s", e.Platform, e.Timeout)
}

// Unwrap returns ErrSolveTimeout.
func (e *SolveTimeoutError) Unwrap() error { return ErrSolveTimeout }

// MissingCacheRecordError names a linked distribution with no repodata record in any package cache.
type MissingCacheRecordError struct {
	DistName string
	Searched []string
}

func (e *MissingCacheRecordError) Error() string {
	return fmt.Sprintf("no repodata record for %s in %v", e.DistName, e.Searched)
}

// Unwrap returns ErrMissingCacheRecord.
func (e *MissingCacheRecordError) Unwrap() error { return ErrMissingCacheRecord }

// ArtifactResolutionError names a managed requirement that could not be satisfied.
type ArtifactResolutionError struct {
	Requirement string
	Platform    string
	Reason      string
}

func (e *ArtifactResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s for %s: %s", e.Requirement, e.Platform, e.Reason)
}

// Unwrap returns ErrArtifactResolution.
func (e *ArtifactResolutionError) Unwrap() error { return ErrArtifactResolution }

// ConsistencyError describes two different records for the same lock key.
type ConsistencyError struct {
	Key LockKey
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("conflicting records for %s", e.Key)
}

// Unwrap returns ErrInternalConsistency.
func (e *ConsistencyError) Unwrap() error { return ErrInternalConsistency }
