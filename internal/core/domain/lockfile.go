package domain

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// LockVersion is the current lock format version.
const LockVersion = 1

// LockedDependency is one concrete, resolved package for one platform.
type LockedDependency struct {
	Name     string
	Version  string
	Manager  Manager
	Platform string
	// Dependencies maps dependency names to the range declared by the package.
	Dependencies map[string]string
	URL          string
	// Hash is "md5:<hex>" for native packages and "sha256:<hex>" for managed ones.
	// It is empty only for virtual packages.
	Hash       string
	Categories []string
	Optional   bool
}

// LockKey identifies a LockedDependency within a lock.
type LockKey struct {
	Name     string
	Manager  Manager
	Platform string
}

func (k LockKey) String() string {
	return fmt.Sprintf("%s:%s@%s", k.Manager, k.Name, k.Platform)
}

// Key returns the identity of the record.
func (d LockedDependency) Key() LockKey {
	return LockKey{Name: d.Name, Manager: d.Manager, Platform: d.Platform}
}

// Equal reports whether two records describe the same resolution.
func (d LockedDependency) Equal(o LockedDependency) bool {
	return d.Name == o.Name &&
		d.Version == o.Version &&
		d.Manager == o.Manager &&
		d.Platform == o.Platform &&
		d.URL == o.URL &&
		d.Hash == o.Hash &&
		d.Optional == o.Optional &&
		maps.Equal(d.Dependencies, o.Dependencies) &&
		slices.Equal(d.Categories, o.Categories)
}

// LockMetadata is the header of a lock.
type LockMetadata struct {
	// ContentHash maps each platform to the specification hash it was locked from.
	ContentHash map[string]string
	Channels    []string
	Platforms   []string
	Sources     []string
}

// Lock is the persisted, replayable result of locking a specification.
type Lock struct {
	Version  int
	Metadata LockMetadata
	Packages []LockedDependency
}

// NewLock merges per-platform results into one lock ordered by (platform, manager, name).
// Identical duplicates collapse; differing records for one key fail with ErrInternalConsistency.
func NewLock(meta LockMetadata, groups ...[]LockedDependency) (*Lock, error) {
	seen := make(map[LockKey]LockedDependency)
	for _, group := range groups {
		for _, dep := range group {
			key := dep.Key()
			if prev, ok := seen[key]; ok {
				if !prev.Equal(dep) {
					err := zerr.Wrap(&ConsistencyError{Key: key}, "cannot merge lock results")
					err = zerr.With(err, "first_version", prev.Version)
					return nil, zerr.With(err, "second_version", dep.Version)
				}
				continue
			}
			seen[key] = dep
		}
	}

	packages := slices.Collect(maps.Values(seen))
	SortLocked(packages)
	return &Lock{Version: LockVersion, Metadata: meta, Packages: packages}, nil
}

// SortLocked orders records by platform, manager and name.
func SortLocked(deps []LockedDependency) {
	slices.SortFunc(deps, func(a, b LockedDependency) int {
		return cmp.Or(
			cmp.Compare(a.Platform, b.Platform),
			cmp.Compare(a.Manager, b.Manager),
			cmp.Compare(a.Name, b.Name),
		)
	})
}

// ForPlatform returns the records locked for platform and manager, keyed by name.
func (l *Lock) ForPlatform(platform string, manager Manager) map[string]LockedDependency {
	out := make(map[string]LockedDependency)
	if l == nil {
		return out
	}
	for _, dep := range l.Packages {
		if dep.Platform == platform && dep.Manager == manager {
			out[dep.Name] = dep
		}
	}
	return out
}

// PlatformPackages returns every record for platform in lock order.
func (l *Lock) PlatformPackages(platform string) []LockedDependency {
	if l == nil {
		return nil
	}
	var out []LockedDependency
	for _, dep := range l.Packages {
		if dep.Platform == platform {
			out = append(out, dep)
		}
	}
	return out
}

// Validate checks that every key appears exactly once.
func (l *Lock) Validate() error {
	seen := make(map[LockKey]struct{}, len(l.Packages))
	for _, dep := range l.Packages {
		key := dep.Key()
		if _, ok := seen[key]; ok {
			return zerr.Wrap(&ConsistencyError{Key: key}, "lock contains duplicate entries")
		}
		seen[key] = struct{}{}
	}
	return nil
}
