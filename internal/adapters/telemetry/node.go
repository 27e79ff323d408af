package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/core/ports"
)

// TracerNodeID provides the tracer that opens one span per platform lock.
const TracerNodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer(InstrumentationName), nil
		},
	})
}
