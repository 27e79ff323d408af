package domain

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// LockSpecification is the canonical description of what to lock.
type LockSpecification struct {
	// Dependencies keep declaration order. Names need not be unique.
	Dependencies []Dependency
	// Channels are ordered by priority, highest first.
	Channels []string
	// Platforms are the target subdirs, in first-seen order.
	Platforms []string
	// Sources are the input paths. They identify the spec but are never hashed.
	Sources []string
	// VirtualPackages are offered to the solver. Nil means none.
	VirtualPackages *VirtualPackageRepository
}

// DependenciesFor returns the dependencies resolved by the given manager, in declaration order.
func (s *LockSpecification) DependenciesFor(manager Manager) []Dependency {
	var out []Dependency
	for _, dep := range s.Dependencies {
		if dep.Manager == manager {
			out = append(out, dep)
		}
	}
	return out
}

// Aggregate merges per-file specifications into one.
//
// Dependencies and sources are concatenated in file order. Channel lists are unified so
// that every input list remains a suffix of the result; a list that would reorder
// existing priorities fails with ErrChannelConflict. Platforms are deduplicated keeping
// first-seen order.
func Aggregate(specs ...*LockSpecification) (*LockSpecification, error) {
	out := &LockSpecification{
		Dependencies: []Dependency{},
		Channels:     []string{},
		Platforms:    []string{},
		Sources:      []string{},
	}

	for _, spec := range specs {
		if spec == nil {
			continue
		}
		out.Dependencies = append(out.Dependencies, spec.Dependencies...)

		channels, err := suffixUnion(out.Channels, spec.Channels)
		if err != nil {
			return nil, err
		}
		out.Channels = channels
		out.Platforms = orderedUnion(out.Platforms, spec.Platforms)
		out.Sources = orderedUnion(out.Sources, spec.Sources)
		if spec.VirtualPackages != nil {
			out.VirtualPackages = spec.VirtualPackages
		}
	}

	if len(out.Dependencies) == 0 && len(out.Platforms) == 0 {
		return nil, zerr.Wrap(ErrEmptyInput, "cannot aggregate specifications")
	}
	return out, nil
}

func orderedUnion(acc, items []string) []string {
	for _, item := range items {
		if !slices.Contains(acc, item) {
			acc = append(acc, item)
		}
	}
	return acc
}

func suffixUnion(acc, seq []string) ([]string, error) {
	switch {
	case len(seq) == 0:
		return acc, nil
	case len(acc) == 0:
		return slices.Clone(seq), nil
	case len(seq) <= len(acc):
		if !slices.Equal(acc[len(acc)-len(seq):], seq) {
			return nil, channelConflict(acc, seq)
		}
		return acc, nil
	default:
		if !slices.Equal(seq[len(seq)-len(acc):], acc) {
			return nil, channelConflict(acc, seq)
		}
		return slices.Clone(seq), nil
	}
}

func channelConflict(acc, seq []string) error {
	err := zerr.Wrap(ErrChannelConflict, "cannot unify channels")
	err = zerr.With(err, "current", acc)
	return zerr.With(err, "incoming", seq)
}

type hashedDependency struct {
	Manager  Manager  `json:"manager"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Version  string   `json:"version"`
	Optional bool     `json:"optional"`
	Extras   []string `json:"extras"`
	URL      string   `json:"url"`
	Hashes   []string `json:"hashes"`
}

type hashedVirtualPackages struct {
	Noarch   []VirtualPackage `json:"noarch"`
	Platform []VirtualPackage `json:"platform"`
}

type hashPayload struct {
	Channels        []string               `json:"channels"`
	Specs           []hashedDependency     `json:"specs"`
	VirtualPackages *hashedVirtualPackages `json:"virtual_package_hash,omitempty"`
}

// ContentHash returns one SHA-256 hex digest per platform. The digest covers the sorted
// dependencies, the channel order and the virtual packages visible on that platform.
// Sources and declaration order do not affect it.
func (s *LockSpecification) ContentHash() (map[string]string, error) {
	specs := make([]hashedDependency, 0, len(s.Dependencies))
	for _, dep := range s.Dependencies {
		extras := slices.Clone(dep.Extras)
		if extras == nil {
			extras = []string{}
		}
		slices.Sort(extras)
		hashes := slices.Clone(dep.Hashes)
		if hashes == nil {
			hashes = []string{}
		}
		slices.Sort(hashes)
		specs = append(specs, hashedDependency{
			Manager:  dep.Manager,
			Name:     dep.Name,
			Category: dep.EffectiveCategory(),
			Version:  dep.Version,
			Optional: dep.Optional,
			Extras:   extras,
			URL:      dep.URL,
			Hashes:   hashes,
		})
	}
	slices.SortStableFunc(specs, func(a, b hashedDependency) int {
		return cmp.Or(
			cmp.Compare(a.Manager, b.Manager),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Category, b.Category),
			cmp.Compare(a.Version, b.Version),
			cmp.Compare(a.URL, b.URL),
			cmp.Compare(strings.Join(a.Extras, ","), strings.Join(b.Extras, ",")),
			compareBool(a.Optional, b.Optional),
			cmp.Compare(strings.Join(a.Hashes, ","), strings.Join(b.Hashes, ",")),
		)
	})

	channels := slices.Clone(s.Channels)
	if channels == nil {
		channels = []string{}
	}

	hashes := make(map[string]string, len(s.Platforms))
	for _, platform := range s.Platforms {
		payload := hashPayload{Channels: channels, Specs: specs}
		if s.VirtualPackages != nil {
			noarch, native := s.VirtualPackages.ForPlatform(platform)
			payload.VirtualPackages = &hashedVirtualPackages{Noarch: noarch, Platform: native}
		}

		digest, err := canonicalDigest(payload)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to hash specification"), "platform", platform)
		}
		hashes[platform] = digest
	}
	return hashes, nil
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func canonicalDigest(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:]), nil
}
