package ports

import "go.trai.ch/lockforge/internal/core/domain"

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// LockStore persists locks.
type LockStore interface {
	// Load reads the lock at path. It returns nil and no error when the file does not exist.
	Load(path string) (*domain.Lock, error)
	// Save writes lock to path with credentials scrubbed.
	Save(path string, lock *domain.Lock) error
}

// ExplicitRenderer writes per-platform explicit lock files.
type ExplicitRenderer interface {
	// Render writes one file per platform named by template and returns the paths written.
	Render(lock *domain.Lock, platforms []string, template string, creds domain.Credentials) ([]string, error)
}

// CredentialStore loads channel credentials.
type CredentialStore interface {
	Load(path string) (domain.Credentials, error)
}
