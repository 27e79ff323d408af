// Package specfile reads dependency declarations from environment.yml and pyproject.toml files.
package specfile

import (
	"path/filepath"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// ErrInvalidSpecFile is returned when an input file cannot be decoded.
var ErrInvalidSpecFile = zerr.New("invalid specification file")

// Parser picks a format by file name.
type Parser struct{}

// New creates a parser.
func New() *Parser {
	return &Parser{}
}

// Parse reads path as pyproject.toml or an environment YAML file.
func (p *Parser) Parse(path string, platforms []string) (*domain.LockSpecification, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case base == "pyproject.toml":
		return ParsePyProject(path, platforms)
	case strings.HasSuffix(base, ".yml"), strings.HasSuffix(base, ".yaml"):
		return ParseEnvironment(path, platforms)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedSpecFile, "cannot parse input"), "path", path)
	}
}
