package pypi

import (
	"context"
	"net/http"
	"time"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/adapters/config"
	"go.trai.ch/lockforge/internal/adapters/logger"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
)

// NodeID is the unique identifier for the managed resolver Graft node.
const NodeID graft.ID = "adapter.pypi"

const requestTimeout = 2 * time.Minute

func init() {
	graft.Register(graft.Node[ports.ManagedResolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.ManagedResolver, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			client, err := NewClient(settings.PyPIURL, &http.Client{Timeout: requestTimeout})
			if err != nil {
				return nil, err
			}
			return NewResolver(client, log), nil
		},
	})
}
