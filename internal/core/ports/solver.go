package ports

import (
	"context"

	"go.trai.ch/lockforge/internal/core/domain"
)

//go:generate mockgen -source=solver.go -destination=mocks/mock_solver.go -package=mocks

// NativeSolver drives an external native-ecosystem solver in dry-run mode.
type NativeSolver interface {
	// Solve computes a fresh install plan for one platform.
	Solve(ctx context.Context, req domain.SolveRequest) (*domain.InstallPlan, error)
	// Update re-solves the named packages on top of a prior resolution.
	// When none of the names are installed the solver is not invoked and the
	// prior records are carried forward unchanged.
	Update(ctx context.Context, req domain.UpdateRequest) (*domain.InstallPlan, error)
}

// SolverFactory builds a NativeSolver for a solver configuration.
type SolverFactory interface {
	New(cfg domain.SolverConfig) (NativeSolver, error)
}
