package virtual

import (
	"cmp"
	"os"
	"slices"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSpecFile is returned when a virtual package file cannot be decoded.
var ErrInvalidSpecFile = zerr.New("invalid virtual package file")

type specFile struct {
	Subdirs map[string]subdirSpec `yaml:"subdirs"`
}

type subdirSpec struct {
	Packages map[string]packageSpec `yaml:"packages"`
}

// packageSpec accepts either a bare version or a {version, build} mapping.
type packageSpec struct {
	Version string `yaml:"version"`
	Build   string `yaml:"build"`
}

func (p *packageSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Version = node.Value
		return nil
	}
	type plain packageSpec
	return node.Decode((*plain)(p))
}

// LoadSpecFile reads a virtual package file of the form
//
//	subdirs:
//	  linux-64:
//	    packages:
//	      __glibc: "2.28"
//	      __archspec: {version: "1", build: x86_64}
func LoadSpecFile(path string) (*domain.VirtualPackageRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read virtual package file"), "path", path)
	}
	return ParseSpec(data)
}

// ParseSpec decodes virtual package YAML.
func ParseSpec(data []byte) (*domain.VirtualPackageRepository, error) {
	var spec specFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, zerr.Wrap(zerr.Wrap(ErrInvalidSpecFile, err.Error()), "failed to parse virtual package file")
	}

	repo := &domain.VirtualPackageRepository{Subdirs: map[string][]domain.VirtualPackage{
		domain.PlatformNoarch: {},
	}}
	for subdir, s := range spec.Subdirs {
		pkgs := make([]domain.VirtualPackage, 0, len(s.Packages))
		for name, p := range s.Packages {
			if p.Version == "" {
				return nil, zerr.With(zerr.Wrap(ErrInvalidSpecFile, "package has no version"), "package", name)
			}
			build := p.Build
			if build == "" {
				build = defaultBuild
			}
			pkgs = append(pkgs, domain.VirtualPackage{Name: name, Version: p.Version, Build: build})
		}
		slices.SortFunc(pkgs, func(a, b domain.VirtualPackage) int { return cmp.Compare(a.Name, b.Name) })
		repo.Subdirs[subdir] = pkgs
	}
	return repo, nil
}
