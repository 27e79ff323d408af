package specfile

import "go.trai.ch/lockforge/internal/core/domain"

// ParseMatchSpec exposes parseMatchSpec for testing.
func ParseMatchSpec(spec string) (domain.Dependency, error) { return parseMatchSpec(spec) }

// PoetryConstraint exposes poetryConstraint for testing.
func PoetryConstraint(constraint string) (string, error) { return poetryConstraint(constraint) }
