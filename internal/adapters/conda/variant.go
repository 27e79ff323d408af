// Package conda drives conda, mamba and micromamba as dry-run native solvers.
package conda

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// ErrUnknownVariant is returned when a forced variant name is not recognized.
var ErrUnknownVariant = zerr.New("unknown solver variant")

// Variant captures the behavioral differences between solver executables.
type Variant struct {
	Name string
	// UpdateVerb moves a single package to its newest compatible version.
	UpdateVerb string
	// PinsUpdates is set when the tool only limits an update through a pin file.
	PinsUpdates bool
	// ReportsPkgsDirs is set when `info --json` lists package cache directories.
	ReportsPkgsDirs bool
	// LinkCarriesRecord is set when LINK entries hold the full repodata record.
	LinkCarriesRecord bool
	// BaseURLIncludesSubdir is set when `list --json` base_url already ends in the subdir.
	BaseURLIncludesSubdir bool
}

// Known variants.
var (
	Conda = Variant{
		Name:            "conda",
		UpdateVerb:      "install",
		ReportsPkgsDirs: true,
	}
	Mamba = Variant{
		Name:            "mamba",
		UpdateVerb:      "update",
		PinsUpdates:     true,
		ReportsPkgsDirs: true,
	}
	Micromamba = Variant{
		Name:                  "micromamba",
		UpdateVerb:            "update",
		LinkCarriesRecord:     true,
		BaseURLIncludesSubdir: true,
	}
)

// DetectVariant picks the variant named by forced, or infers it from the executable name.
func DetectVariant(executable, forced string) (Variant, error) {
	if forced != "" {
		switch strings.ToLower(forced) {
		case Conda.Name:
			return Conda, nil
		case Mamba.Name:
			return Mamba, nil
		case Micromamba.Name:
			return Micromamba, nil
		default:
			return Variant{}, zerr.With(zerr.Wrap(ErrUnknownVariant, "cannot select solver"), "variant", forced)
		}
	}

	base := strings.ToLower(filepath.Base(executable))
	switch {
	case strings.HasPrefix(base, "micromamba"):
		return Micromamba, nil
	case strings.HasPrefix(base, "mamba"):
		return Mamba, nil
	default:
		return Conda, nil
	}
}
