package domain

import (
	"regexp"
	"slices"
	"strings"
)

// Manager identifies the package ecosystem a dependency belongs to.
type Manager string

const (
	// ManagerConda is the native binary ecosystem served by channels.
	ManagerConda Manager = "conda"
	// ManagerPip is the managed-language registry ecosystem.
	ManagerPip Manager = "pip"
)

const (
	// CategoryMain is the category of dependencies declared without one.
	CategoryMain = "main"
	// CategoryDev is the conventional category for development-only dependencies.
	CategoryDev = "dev"
)

// DependencyKind distinguishes version-constrained dependencies from URL-pinned ones.
type DependencyKind int

const (
	// KindVersioned is a dependency constrained by a version range.
	KindVersioned DependencyKind = iota
	// KindURL is a dependency pinned to a direct artifact URL.
	KindURL
)

// Dependency is one abstract requirement declared by an input file.
// It is treated as immutable once parsed.
type Dependency struct {
	// Name is the package name as declared.
	Name string
	// Manager selects the ecosystem resolving this dependency.
	Manager Manager
	// Optional marks dependencies that are not part of the default install.
	Optional bool
	// Category groups dependencies (main, dev, or a custom extra name).
	Category string
	// Extras are optional feature sets requested from the package.
	Extras []string
	// Version is the constraint string for versioned dependencies.
	Version string
	// URL is the direct artifact location for URL dependencies.
	URL string
	// Hashes are "<algo>:<digest>" pins attached to a URL dependency.
	Hashes []string
	// Editable marks a managed requirement installed from a local working copy.
	Editable bool
}

// NewVersionedDependency creates a version-constrained dependency in the main category.
func NewVersionedDependency(name string, manager Manager, version string) Dependency {
	return Dependency{
		Name:     name,
		Manager:  manager,
		Category: CategoryMain,
		Version:  strings.TrimSpace(version),
	}
}

// NewURLDependency creates a URL-pinned dependency in the main category.
func NewURLDependency(name string, manager Manager, url string, hashes ...string) Dependency {
	return Dependency{
		Name:     name,
		Manager:  manager,
		Category: CategoryMain,
		URL:      url,
		Hashes:   slices.Clone(hashes),
	}
}

// Kind reports which variant the dependency is.
func (d Dependency) Kind() DependencyKind {
	if d.URL != "" {
		return KindURL
	}
	return KindVersioned
}

// EffectiveCategory returns the category, defaulting to main.
func (d Dependency) EffectiveCategory() string {
	if d.Category == "" {
		return CategoryMain
	}
	return d.Category
}

// IsLocal reports whether the dependency refers to a local working copy or path.
func (d Dependency) IsLocal() bool {
	if d.Editable {
		return true
	}
	return IsLocalPath(d.URL)
}

// WithCategory returns a copy of d in the given category.
func (d Dependency) WithCategory(category string, optional bool) Dependency {
	d.Category = category
	d.Optional = optional
	d.Extras = slices.Clone(d.Extras)
	d.Hashes = slices.Clone(d.Hashes)
	return d
}

// IsLocalPath reports whether ref points at the local filesystem rather than a remote artifact.
func IsLocalPath(ref string) bool {
	switch {
	case ref == "":
		return false
	case strings.HasPrefix(ref, "file:"):
		return true
	case strings.HasPrefix(ref, "./"), strings.HasPrefix(ref, "../"), strings.HasPrefix(ref, "/"):
		return true
	case ref == ".", ref == "..":
		return true
	}
	return false
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// CanonicalName returns the name a package is locked under. Managed names are
// lowercased with separator runs collapsed to "-"; native names are kept as declared.
func CanonicalName(manager Manager, name string) string {
	if manager != ManagerPip {
		return name
	}
	return strings.ToLower(nameSeparators.ReplaceAllString(name, "-"))
}
