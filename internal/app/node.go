package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockforge/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/lockforge/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/lockforge/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/lockforge/internal/adapters/specfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/lockforge/internal/adapters/virtual"  //nolint:depguard // Wired in app layer
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
	"go.trai.ch/lockforge/internal/engine/locker"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			specfile.NodeID,
			virtual.NodeID,
			lockfile.StoreNodeID,
			lockfile.RendererNodeID,
			lockfile.CredentialsNodeID,
			locker.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	settings, err := graft.Dep[domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	parser, err := graft.Dep[ports.SpecParser](ctx)
	if err != nil {
		return nil, err
	}

	synth, err := graft.Dep[ports.VirtualPackages](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.LockStore](ctx)
	if err != nil {
		return nil, err
	}

	renderer, err := graft.Dep[ports.ExplicitRenderer](ctx)
	if err != nil {
		return nil, err
	}

	creds, err := graft.Dep[ports.CredentialStore](ctx)
	if err != nil {
		return nil, err
	}

	lk, err := graft.Dep[*locker.Locker](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(settings, parser, synth, store, renderer, creds, lk, log), nil
}
