// Package lockfile persists locks as YAML and renders per-platform explicit files.
package lockfile

import (
	"bytes"
	"strconv"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type lockDocument struct {
	Version  int             `yaml:"version"`
	Metadata metadataSection `yaml:"metadata"`
	Package  []packageEntry  `yaml:"package"`
}

type metadataSection struct {
	ContentHash map[string]string `yaml:"content_hash"`
	Channels    []channelEntry    `yaml:"channels"`
	Platforms   []string          `yaml:"platforms"`
	Sources     []string          `yaml:"sources"`
}

type channelEntry struct {
	URL string `yaml:"url"`
}

type packageEntry struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Manager      string            `yaml:"manager"`
	Platform     string            `yaml:"platform"`
	Dependencies map[string]string `yaml:"dependencies"`
	URL          string            `yaml:"url"`
	Hash         map[string]string `yaml:"hash"`
	Categories   []string          `yaml:"categories"`
	Optional     bool              `yaml:"optional"`
}

// Encode renders lock as YAML. Output is byte-stable for equal locks.
func Encode(lock *domain.Lock) ([]byte, error) {
	doc := lockDocument{
		Version: lock.Version,
		Metadata: metadataSection{
			ContentHash: lock.Metadata.ContentHash,
			Platforms:   nonNil(lock.Metadata.Platforms),
			Sources:     nonNil(lock.Metadata.Sources),
			Channels:    make([]channelEntry, 0, len(lock.Metadata.Channels)),
		},
		Package: make([]packageEntry, 0, len(lock.Packages)),
	}
	if doc.Metadata.ContentHash == nil {
		doc.Metadata.ContentHash = map[string]string{}
	}
	for _, ch := range lock.Metadata.Channels {
		doc.Metadata.Channels = append(doc.Metadata.Channels, channelEntry{URL: ch})
	}

	packages := append([]domain.LockedDependency(nil), lock.Packages...)
	domain.SortLocked(packages)
	for _, dep := range packages {
		entry := packageEntry{
			Name:         dep.Name,
			Version:      dep.Version,
			Manager:      string(dep.Manager),
			Platform:     dep.Platform,
			Dependencies: dep.Dependencies,
			URL:          dep.URL,
			Hash:         map[string]string{},
			Categories:   nonNil(dep.Categories),
			Optional:     dep.Optional,
		}
		if entry.Dependencies == nil {
			entry.Dependencies = map[string]string{}
		}
		if algo, digest, ok := strings.Cut(dep.Hash, ":"); ok {
			entry.Hash[algo] = digest
		}
		doc.Package = append(doc.Package, entry)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, zerr.Wrap(err, "failed to encode lock")
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to encode lock")
	}
	return buf.Bytes(), nil
}

// Decode parses a YAML lock. Unknown versions and duplicate entries are rejected.
func Decode(data []byte) (*domain.Lock, error) {
	var doc lockDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(domain.ErrMalformedLock, err.Error())
	}
	if doc.Version != domain.LockVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedLock, "unsupported lock version"),
			"version", strconv.Itoa(doc.Version))
	}

	lock := &domain.Lock{
		Version: doc.Version,
		Metadata: domain.LockMetadata{
			ContentHash: doc.Metadata.ContentHash,
			Platforms:   doc.Metadata.Platforms,
			Sources:     doc.Metadata.Sources,
		},
		Packages: make([]domain.LockedDependency, 0, len(doc.Package)),
	}
	for _, ch := range doc.Metadata.Channels {
		lock.Metadata.Channels = append(lock.Metadata.Channels, ch.URL)
	}

	for i, entry := range doc.Package {
		manager := domain.Manager(entry.Manager)
		if manager != domain.ManagerConda && manager != domain.ManagerPip {
			return nil, zerr.With(zerr.Wrap(domain.ErrMalformedLock, "unknown manager"), "entry", strconv.Itoa(i))
		}
		if entry.Name == "" || entry.Platform == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrMalformedLock, "entry lacks name or platform"), "entry", strconv.Itoa(i))
		}
		dep := domain.LockedDependency{
			Name:         entry.Name,
			Version:      entry.Version,
			Manager:      manager,
			Platform:     entry.Platform,
			Dependencies: entry.Dependencies,
			URL:          entry.URL,
			Hash:         joinHash(entry.Hash),
			Categories:   entry.Categories,
			Optional:     entry.Optional,
		}
		if dep.Dependencies == nil {
			dep.Dependencies = map[string]string{}
		}
		lock.Packages = append(lock.Packages, dep)
	}
	if err := lock.Validate(); err != nil {
		return nil, zerr.Wrap(domain.ErrMalformedLock, err.Error())
	}
	return lock, nil
}

// joinHash prefers sha256 over md5 when an entry carries both.
func joinHash(h map[string]string) string {
	for _, algo := range []string{"sha256", "md5"} {
		if digest := h[algo]; digest != "" {
			return algo + ":" + digest
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
