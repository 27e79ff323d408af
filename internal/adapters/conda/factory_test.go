package conda_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockforge/internal/adapters/conda"
	"go.trai.ch/lockforge/internal/core/domain"
)

func TestFactory_New(t *testing.T) {
	var looked string
	f := conda.NewFactoryWithLookPath(conda.NewFactory(quietLogger(t)), func(file string) (string, error) {
		looked = file
		return "/opt/bin/" + file, nil
	})

	s, err := f.New(domain.SolverConfig{Executable: "micromamba"})
	require.NoError(t, err)
	assert.Equal(t, "micromamba", looked)

	solver, ok := s.(*conda.Solver)
	require.True(t, ok)
	assert.Equal(t, conda.Micromamba, solver.Variant())

	_, err = f.New(domain.SolverConfig{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSolver, looked)
}

func TestFactory_New_NotFound(t *testing.T) {
	f := conda.NewFactoryWithLookPath(conda.NewFactory(quietLogger(t)), func(string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	})

	_, err := f.New(domain.SolverConfig{Executable: "mamba"})
	require.ErrorIs(t, err, conda.ErrSolverNotFound)
}

func TestFactory_New_UnknownVariant(t *testing.T) {
	f := conda.NewFactoryWithLookPath(conda.NewFactory(quietLogger(t)), func(file string) (string, error) {
		return file, nil
	})

	_, err := f.New(domain.SolverConfig{Executable: "conda", Variant: "pixi"})
	require.ErrorIs(t, err, conda.ErrUnknownVariant)
}
