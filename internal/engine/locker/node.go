package locker

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/adapters/conda"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockforge/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockforge/internal/adapters/pypi"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockforge/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockforge/internal/adapters/virtual"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lockforge/internal/core/ports"
)

// NodeID is the unique identifier for the locker Graft node.
const NodeID graft.ID = "engine.locker"

func init() {
	graft.Register(graft.Node[*Locker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			conda.NodeID,
			pypi.NodeID,
			virtual.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Locker, error) {
			solvers, err := graft.Dep[ports.SolverFactory](ctx)
			if err != nil {
				return nil, err
			}

			resolver, err := graft.Dep[ports.ManagedResolver](ctx)
			if err != nil {
				return nil, err
			}

			synth, err := graft.Dep[ports.VirtualPackages](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(solvers, resolver, synth, tracer, log), nil
		},
	})
}
