package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store reads and writes YAML locks on disk.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Load reads the lock at path. A missing file yields a nil lock.
func (s *Store) Load(path string) (*domain.Lock, error) {
	//nolint:gosec // G304: lock path is chosen by the user
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read lock"), "path", path)
	}
	lock, err := Decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return lock, nil
}

// Save scrubs credentials from lock and replaces the file at path atomically.
func (s *Store) Save(path string, lock *domain.Lock) error {
	data, err := Encode(StripLock(lock))
	if err != nil {
		return err
	}
	return writeAtomic(path, data, domain.FilePerm)
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create lock directory"), "path", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create temporary lock"), "path", path)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to write lock"), "path", path)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write lock"), "path", path)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to set lock permissions"), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace lock"), "path", path)
	}
	return nil
}
