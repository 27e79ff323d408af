package conda

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// priorEnvironment is a throwaway prefix whose conda-meta mirrors a locked resolution,
// so the solver sees those packages as installed.
type priorEnvironment struct {
	root   string
	prefix string
}

// metaRecord is the subset of a conda-meta entry needed to reproduce an installed package.
type metaRecord struct {
	Name        string   `json:"name"`
	Channel     string   `json:"channel"`
	URL         string   `json:"url"`
	MD5         string   `json:"md5"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Version     string   `json:"version"`
	Subdir      string   `json:"subdir"`
	Depends     []string `json:"depends"`
}

var archiveSuffixes = []string{".tar", ".bz2", ".gz", ".conda"}

func newPriorEnvironment(platform string, locked []domain.LockedDependency) (*priorEnvironment, error) {
	h := xxhash.New()
	_, _ = h.WriteString(platform)
	for _, dep := range locked {
		_, _ = h.WriteString(dep.Key().String() + "=" + dep.Version)
	}

	root, err := os.MkdirTemp("", fmt.Sprintf("lockforge-prior-%016x-*", h.Sum64()))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create prior environment")
	}
	env := &priorEnvironment{root: root, prefix: filepath.Join(root, "prefix")}

	meta := env.metaDir()
	if err := os.MkdirAll(meta, domain.DirPerm); err != nil {
		_ = env.Remove()
		return nil, zerr.Wrap(err, "failed to create conda-meta")
	}
	if err := os.WriteFile(filepath.Join(meta, "history"), nil, domain.FilePerm); err != nil {
		_ = env.Remove()
		return nil, zerr.Wrap(err, "failed to write history")
	}

	for _, dep := range locked {
		if dep.Manager != domain.ManagerConda || dep.Platform != platform || dep.URL == "" {
			continue
		}
		rec, dist, err := recordFor(dep)
		if err != nil {
			_ = env.Remove()
			return nil, err
		}
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			_ = env.Remove()
			return nil, zerr.Wrap(err, "failed to encode conda-meta record")
		}
		if err := os.WriteFile(filepath.Join(meta, dist+".json"), data, domain.FilePerm); err != nil {
			_ = env.Remove()
			return nil, zerr.With(zerr.Wrap(err, "failed to write conda-meta record"), "package", dep.Name)
		}
	}
	return env, nil
}

func (e *priorEnvironment) metaDir() string {
	return filepath.Join(e.prefix, "conda-meta")
}

// writePins pins the given "name ==version" lines. An existing pin file is never overwritten.
func (e *priorEnvironment) writePins(pins []string) error {
	name := filepath.Join(e.metaDir(), "pinned")
	//nolint:gosec // G304: path lies inside a prefix this process created
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, domain.FilePerm)
	if errors.Is(err, fs.ErrExist) {
		return zerr.With(zerr.Wrap(domain.ErrPinConflict, "refusing to overwrite pins"), "path", name)
	}
	if err != nil {
		return zerr.Wrap(err, "failed to create pin file")
	}
	var b strings.Builder
	for _, pin := range pins {
		b.WriteString(pin)
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return zerr.Wrap(err, "failed to write pin file")
	}
	return f.Close()
}

// Remove deletes the environment.
func (e *priorEnvironment) Remove() error {
	return os.RemoveAll(e.root)
}

// recordFor derives a conda-meta record and distribution name from a locked package URL.
func recordFor(dep domain.LockedDependency) (metaRecord, string, error) {
	u, err := url.Parse(dep.URL)
	if err != nil {
		return metaRecord{}, "", zerr.With(zerr.Wrap(err, "invalid package url"), "package", dep.Name)
	}
	parent := path.Dir(u.Path)
	dist := path.Base(u.Path)
	for stripped := true; stripped; {
		stripped = false
		for _, suffix := range archiveSuffixes {
			if strings.HasSuffix(dist, suffix) {
				dist = strings.TrimSuffix(dist, suffix)
				stripped = true
			}
		}
	}

	build := dist[strings.LastIndex(dist, "-")+1:]
	buildNumber, err := strconv.Atoi(build[strings.LastIndex(build, "_")+1:])
	if err != nil {
		buildNumber = 0
	}

	return metaRecord{
		Name:        dep.Name,
		Channel:     u.Scheme + "://" + u.Hostname() + parent,
		URL:         dep.URL,
		MD5:         strings.TrimPrefix(dep.Hash, "md5:"),
		Build:       build,
		BuildNumber: buildNumber,
		Version:     dep.Version,
		Subdir:      path.Base(parent),
		Depends:     domain.FormatDepends(dep.Dependencies),
	}, dist, nil
}
