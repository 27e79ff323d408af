package ports

import (
	"context"

	"go.trai.ch/lockforge/internal/core/domain"
)

// ManagedResolver locks the managed-language requirements of one platform.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ManagedResolver interface {
	Resolve(ctx context.Context, req domain.ManagedRequest) (*domain.ManagedResult, error)
}
