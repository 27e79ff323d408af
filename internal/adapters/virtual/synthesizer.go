// Package virtual synthesizes the virtual packages describing a target platform.
package virtual

import (
	"slices"
	"strings"

	"github.com/Masterminds/semver"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Default capability versions assumed when nothing is overridden.
const (
	DefaultGlibc    = "2.17"
	DefaultCuda     = "11.4"
	DefaultOSX      = "10.15"
	DefaultOSXArm64 = "11.0"
)

const defaultBuild = "0"

// Synthesizer implements ports.VirtualPackages.
type Synthesizer struct{}

var _ ports.VirtualPackages = (*Synthesizer)(nil)

// New creates a Synthesizer.
func New() *Synthesizer {
	return &Synthesizer{}
}

// Repository returns the packages from opts.SpecFile when set, otherwise the defaults
// for opts.Platforms with opts.Overrides applied. An empty override version removes
// the package. Any other override must parse as a dotted version.
func (s *Synthesizer) Repository(opts domain.VirtualPackageOptions) (*domain.VirtualPackageRepository, error) {
	if opts.SpecFile != "" {
		return LoadSpecFile(opts.SpecFile)
	}
	for name, version := range opts.Overrides {
		if version == "" {
			continue
		}
		if _, err := semver.NewVersion(version); err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidVirtualPackage, err.Error()), "package", name), "version", version)
		}
	}

	repo := &domain.VirtualPackageRepository{Subdirs: map[string][]domain.VirtualPackage{
		domain.PlatformNoarch: {},
	}}
	for _, platform := range opts.Platforms {
		repo.Subdirs[platform] = applyOverrides(Defaults(platform), opts.Overrides)
	}
	return repo, nil
}

// Defaults returns the fixed virtual packages for platform, sorted by name.
func Defaults(platform string) []domain.VirtualPackage {
	family, arch, _ := strings.Cut(platform, "-")
	archName := archspec(arch)

	pkgs := []domain.VirtualPackage{}
	if archName != "" {
		pkgs = append(pkgs, domain.VirtualPackage{Name: "__archspec", Version: "1", Build: archName})
	}

	switch family {
	case "linux":
		pkgs = append(pkgs,
			domain.VirtualPackage{Name: "__glibc", Version: DefaultGlibc, Build: defaultBuild},
			domain.VirtualPackage{Name: "__unix", Version: "0", Build: defaultBuild},
		)
		if arch == "64" {
			pkgs = append(pkgs, domain.VirtualPackage{Name: "__cuda", Version: DefaultCuda, Build: defaultBuild})
		}
	case "osx":
		version := DefaultOSX
		if arch == "arm64" {
			version = DefaultOSXArm64
		}
		pkgs = append(pkgs,
			domain.VirtualPackage{Name: "__osx", Version: version, Build: defaultBuild},
			domain.VirtualPackage{Name: "__unix", Version: "0", Build: defaultBuild},
		)
	case "win":
		pkgs = append(pkgs, domain.VirtualPackage{Name: "__win", Version: "0", Build: defaultBuild})
		if arch == "64" {
			pkgs = append(pkgs, domain.VirtualPackage{Name: "__cuda", Version: DefaultCuda, Build: defaultBuild})
		}
	}

	slices.SortFunc(pkgs, func(a, b domain.VirtualPackage) int { return strings.Compare(a.Name, b.Name) })
	return pkgs
}

func archspec(arch string) string {
	switch arch {
	case "64":
		return "x86_64"
	case "32":
		return "x86"
	case "aarch64", "ppc64le", "s390x", "arm64", "armv7l":
		return arch
	default:
		return ""
	}
}

// applyOverrides replaces versions of packages already present on the platform.
func applyOverrides(pkgs []domain.VirtualPackage, overrides map[string]string) []domain.VirtualPackage {
	if len(overrides) == 0 {
		return pkgs
	}
	out := make([]domain.VirtualPackage, 0, len(pkgs))
	for _, pkg := range pkgs {
		version, ok := overrides[pkg.Name]
		switch {
		case !ok:
			out = append(out, pkg)
		case version != "":
			pkg.Version = version
			out = append(out, pkg)
		}
	}
	return out
}

// OverridesFromFlags maps the --glibc, --cuda and --osx values to package overrides.
// Unset flags (nil) leave the default in place.
func OverridesFromFlags(glibc, cuda, osx *string) map[string]string {
	out := map[string]string{}
	if glibc != nil {
		out["__glibc"] = *glibc
	}
	if cuda != nil {
		out["__cuda"] = *cuda
	}
	if osx != nil {
		out["__osx"] = *osx
	}
	return out
}
