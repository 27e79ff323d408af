package ports

import "go.trai.ch/lockforge/internal/core/domain"

//go:generate mockgen -source=virtual.go -destination=mocks/mock_virtual.go -package=mocks

// VirtualPackages synthesizes virtual package repositories and exposes them as channels.
type VirtualPackages interface {
	// Repository builds the repository for the given options.
	Repository(opts domain.VirtualPackageOptions) (*domain.VirtualPackageRepository, error)
	// WriteChannel materializes repo as a local channel under dir and returns its URL.
	WriteChannel(repo *domain.VirtualPackageRepository, dir string) (string, error)
}
