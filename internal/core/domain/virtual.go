package domain

import (
	"cmp"
	"slices"
)

// PlatformNoarch is the subdir shared by every platform.
const PlatformNoarch = "noarch"

// VirtualPackage is a synthetic, already satisfied package describing a platform capability.
type VirtualPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build"`
}

// VirtualPackageRepository holds the virtual packages offered to the solver per subdir.
type VirtualPackageRepository struct {
	Subdirs map[string][]VirtualPackage
}

// ForPlatform returns the packages visible when solving for platform: noarch first, then
// the platform's own, each sorted by name.
func (r *VirtualPackageRepository) ForPlatform(platform string) (noarch, native []VirtualPackage) {
	if r == nil {
		return []VirtualPackage{}, []VirtualPackage{}
	}
	return sortedPackages(r.Subdirs[PlatformNoarch]), sortedPackages(r.Subdirs[platform])
}

// Platforms returns the non-noarch subdirs in sorted order.
func (r *VirtualPackageRepository) Platforms() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Subdirs))
	for subdir := range r.Subdirs {
		if subdir != PlatformNoarch {
			out = append(out, subdir)
		}
	}
	slices.Sort(out)
	return out
}

func sortedPackages(pkgs []VirtualPackage) []VirtualPackage {
	out := slices.Clone(pkgs)
	if out == nil {
		out = []VirtualPackage{}
	}
	slices.SortFunc(out, func(a, b VirtualPackage) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Version, b.Version), cmp.Compare(a.Build, b.Build))
	})
	return out
}
