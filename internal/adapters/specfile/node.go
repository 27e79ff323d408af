package specfile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/core/ports"
)

// NodeID is the unique identifier for the specification parser Graft node.
const NodeID graft.ID = "adapter.specfile"

func init() {
	graft.Register(graft.Node[ports.SpecParser]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SpecParser, error) {
			return New(), nil
		},
	})
}
