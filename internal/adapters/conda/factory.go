package conda

import (
	"os/exec"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
	"go.trai.ch/zerr"
)

// ErrSolverNotFound is returned when the solver executable cannot be located.
var ErrSolverNotFound = zerr.New("solver executable not found")

// Factory builds solvers from configuration.
type Factory struct {
	log      ports.Logger
	lookPath func(file string) (string, error)
}

// NewFactory creates a factory that resolves executables on PATH.
func NewFactory(log ports.Logger) *Factory {
	return &Factory{log: log, lookPath: exec.LookPath}
}

// New locates cfg.Executable, detects its variant and returns a subprocess-backed solver.
func (f *Factory) New(cfg domain.SolverConfig) (ports.NativeSolver, error) {
	exe := cfg.Executable
	if exe == "" {
		exe = domain.DefaultSolver
	}
	path, err := f.lookPath(exe)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrSolverNotFound, err.Error()), "executable", exe)
	}
	variant, err := DetectVariant(path, cfg.Variant)
	if err != nil {
		return nil, err
	}
	f.log.Debug("using " + variant.Name + " at " + path)
	return NewSolver(variant, NewExecRunner(path, cfg.Timeout), f.log, cfg), nil
}
