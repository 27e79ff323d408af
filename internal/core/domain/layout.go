package domain

import "time"

const (
	// DefaultLockFile is the lock written when no path is given.
	DefaultLockFile = "lockforge.lock.yml"

	// DefaultSpecFile is read when no input file is given and no prior lock names its sources.
	DefaultSpecFile = "environment.yml"

	// DefaultFilenameTemplate names explicit per-platform renders.
	DefaultFilenameTemplate = "conda-{{.Platform}}.lock"

	// DefaultSolver is the native solver executable looked up on PATH.
	DefaultSolver = "conda"

	// DefaultPyPIURL is the registry JSON API root.
	DefaultPyPIURL = "https://pypi.org/pypi"

	// DefaultSolveTimeout bounds a single solver invocation.
	DefaultSolveTimeout = 10 * time.Minute

	// DirPerm is the default permission for directories created by lockforge.
	DirPerm = 0o750

	// FilePerm is the default permission for lock files.
	FilePerm = 0o644

	// PrivateFilePerm is used for files that may carry credentials.
	PrivateFilePerm = 0o600
)

// DefaultPlatforms are locked when neither the inputs nor the caller name any.
var DefaultPlatforms = []string{"linux-64", "osx-64", "win-64"}
