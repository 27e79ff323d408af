package conda

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/adapters/logger"
	"go.trai.ch/lockforge/internal/core/ports"
)

// NodeID is the unique identifier for the solver factory Graft node.
const NodeID graft.ID = "adapter.conda"

func init() {
	graft.Register(graft.Node[ports.SolverFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.SolverFactory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(log), nil
		},
	})
}
