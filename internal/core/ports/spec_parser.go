package ports

import "go.trai.ch/lockforge/internal/core/domain"

// SpecParser reads one input file into a specification.
//
//go:generate mockgen -source=spec_parser.go -destination=mocks/mock_spec_parser.go -package=mocks
type SpecParser interface {
	// Parse reads path. Platforms are the caller's targets and may be empty.
	Parse(path string, platforms []string) (*domain.LockSpecification, error)
}
