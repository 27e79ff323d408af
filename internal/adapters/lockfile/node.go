package lockfile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/core/ports"
)

const (
	// StoreNodeID is the unique identifier for the lock store Graft node.
	StoreNodeID graft.ID = "adapter.lockfile.store"
	// RendererNodeID is the unique identifier for the explicit renderer Graft node.
	RendererNodeID graft.ID = "adapter.lockfile.renderer"
	// CredentialsNodeID is the unique identifier for the credential store Graft node.
	CredentialsNodeID graft.ID = "adapter.lockfile.credentials"
)

func init() {
	graft.Register(graft.Node[ports.LockStore]{
		ID:        StoreNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockStore, error) {
			return NewStore(), nil
		},
	})

	graft.Register(graft.Node[ports.ExplicitRenderer]{
		ID:        RendererNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ExplicitRenderer, error) {
			return NewRenderer(""), nil
		},
	})

	graft.Register(graft.Node[ports.CredentialStore]{
		ID:        CredentialsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.CredentialStore, error) {
			return NewCredentialFile(), nil
		},
	})
}
