package virtual

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/core/ports"
)

// NodeID is the unique identifier for the virtual package Graft node.
const NodeID graft.ID = "adapter.virtual"

func init() {
	graft.Register(graft.Node[ports.VirtualPackages]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.VirtualPackages, error) {
			return New(), nil
		},
	})
}
