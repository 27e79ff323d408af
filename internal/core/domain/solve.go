package domain

import "time"

// SolveRequest asks the native solver for a fresh plan.
type SolveRequest struct {
	Platform string
	// Channels are ordered by priority and include any virtual package channel.
	Channels []string
	Specs    []Dependency
	// VirtualPackages are the capabilities assumed for the platform.
	VirtualPackages []VirtualPackage
}

// UpdateRequest asks the native solver to move a subset of an existing resolution.
type UpdateRequest struct {
	SolveRequest
	// Locked are the prior native records for the platform.
	Locked []LockedDependency
	// Update names the packages allowed to change.
	Update []string
}

// ManagedRequest asks the managed-language resolver to lock the pip requirements of one platform.
type ManagedRequest struct {
	Platform string
	// PythonVersion is the interpreter version chosen by the native solve.
	PythonVersion string
	Requirements  []Dependency
	// VirtualPackages bound the platform tags of compatible binary artifacts.
	VirtualPackages []VirtualPackage
	// Locked are the prior managed records for the platform.
	Locked []LockedDependency
	Update []string
}

// ManagedResult is the outcome of managed-language resolution.
type ManagedResult struct {
	Packages []LockedDependency
	// Excluded lists requirements deliberately left out of the lock, such as editable installs.
	Excluded []Dependency
}

// VirtualPackageOptions selects the virtual packages synthesized for a lock.
type VirtualPackageOptions struct {
	// SpecFile is an optional YAML file replacing the defaults entirely.
	SpecFile string
	// Overrides pin virtual package versions by name (e.g. "__glibc": "2.28") on top of defaults.
	Overrides map[string]string
	Platforms []string
}

// SolverConfig describes the native solver executable and how to drive it.
type SolverConfig struct {
	// Executable is the path or name of conda, mamba or micromamba.
	Executable string
	// Variant forces a tool variant; empty detects it from the executable name.
	Variant string
	// PkgsDirs are read-only package caches searched for repodata records.
	PkgsDirs   []string
	ExtraFlags []string
	// Timeout bounds each solver invocation. Zero means no limit.
	Timeout time.Duration
}
