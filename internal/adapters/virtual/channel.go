package virtual

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

type repodata struct {
	Info struct {
		Subdir string `json:"subdir"`
	} `json:"info"`
	Packages        map[string]repodataRecord `json:"packages"`
	PackagesConda   map[string]repodataRecord `json:"packages.conda"`
	RepodataVersion int                       `json:"repodata_version"`
}

type repodataRecord struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	Subdir      string   `json:"subdir"`
	Timestamp   int64    `json:"timestamp"`
}

// WriteChannel writes repodata.json for noarch and every subdir of repo under dir and
// returns the channel's file:// URL. Records carry no md5, so locked virtual packages
// have an empty hash.
func (s *Synthesizer) WriteChannel(repo *domain.VirtualPackageRepository, dir string) (string, error) {
	subdirs := append([]string{domain.PlatformNoarch}, repo.Platforms()...)
	for _, subdir := range subdirs {
		data := repodata{
			Packages:        map[string]repodataRecord{},
			PackagesConda:   map[string]repodataRecord{},
			RepodataVersion: 1,
		}
		data.Info.Subdir = subdir
		for _, pkg := range repo.Subdirs[subdir] {
			fn := pkg.Name + "-" + pkg.Version + "-" + pkg.Build + ".tar.bz2"
			data.Packages[fn] = repodataRecord{
				Name:    pkg.Name,
				Version: pkg.Version,
				Build:   pkg.Build,
				Depends: []string{},
				Subdir:  subdir,
			}
		}

		target := filepath.Join(dir, subdir)
		if err := os.MkdirAll(target, domain.DirPerm); err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to create channel dir"), "path", target)
		}
		raw, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", zerr.Wrap(err, "failed to encode repodata")
		}
		path := filepath.Join(target, "repodata.json")
		if err := os.WriteFile(path, raw, domain.FilePerm); err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to write repodata"), "path", path)
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve channel dir")
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
