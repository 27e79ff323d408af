package specfile

import (
	"os"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// environmentFile is the environment.yml shape. Dependencies mix match-spec strings
// with a single {pip: [...]} mapping.
type environmentFile struct {
	Name         string      `yaml:"name"`
	Channels     []string    `yaml:"channels"`
	Platforms    []string    `yaml:"platforms"`
	Dependencies []yaml.Node `yaml:"dependencies"`
}

// ParseEnvironment reads an environment.yml file.
func ParseEnvironment(path string, platforms []string) (*domain.LockSpecification, error) {
	//nolint:gosec // G304: path is a user-supplied input file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read environment file"), "path", path)
	}
	spec, err := parseEnvironment(data, platforms)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	spec.Sources = []string{path}
	return spec, nil
}

func parseEnvironment(data []byte, platforms []string) (*domain.LockSpecification, error) {
	var env environmentFile
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, zerr.Wrap(ErrInvalidSpecFile, err.Error())
	}

	spec := &domain.LockSpecification{
		Channels:  env.Channels,
		Platforms: env.Platforms,
	}
	if len(spec.Platforms) == 0 {
		spec.Platforms = platforms
	}

	for i := range env.Dependencies {
		node := &env.Dependencies[i]
		switch node.Kind {
		case yaml.ScalarNode:
			dep, err := parseMatchSpec(node.Value)
			if err != nil {
				return nil, zerr.With(err, "line", node.Line)
			}
			spec.Dependencies = append(spec.Dependencies, dep)
		case yaml.MappingNode:
			var section struct {
				Pip []string `yaml:"pip"`
			}
			if err := node.Decode(&section); err != nil {
				return nil, zerr.With(zerr.Wrap(ErrInvalidSpecFile, err.Error()), "line", node.Line)
			}
			for _, line := range section.Pip {
				req, err := domain.ParseRequirement(line)
				if err != nil {
					return nil, zerr.With(err, "line", node.Line)
				}
				spec.Dependencies = append(spec.Dependencies, req.Dependency(domain.CategoryMain, false))
			}
		default:
			return nil, zerr.With(zerr.Wrap(ErrInvalidSpecFile, "unexpected dependency entry"), "line", node.Line)
		}
	}
	return spec, nil
}
