package conda

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// reconcile appends a fetch record for every package the solver links from its cache.
func (s *Solver) reconcile(ctx context.Context, platform string, plan *domain.InstallPlan) error {
	cached := plan.LinkOnly()
	if len(cached) == 0 {
		return nil
	}

	if s.variant.LinkCarriesRecord {
		for _, link := range cached {
			plan.Fetch = append(plan.Fetch, fetchFromLink(link))
		}
		return nil
	}

	dirs, err := s.packageCaches(ctx, platform)
	if err != nil {
		return err
	}
	for _, link := range cached {
		rec, err := readCacheRecord(dirs, link.DistName)
		if err != nil {
			return zerr.With(err, "platform", platform)
		}
		plan.Fetch = append(plan.Fetch, rec)
	}
	return nil
}

func fetchFromLink(link domain.LinkAction) domain.FetchAction {
	return domain.FetchAction{
		Channel:    link.Channel,
		Constrains: link.Constrains,
		Depends:    link.Depends,
		Fn:         link.Fn,
		MD5:        link.MD5,
		Name:       link.Name,
		Subdir:     link.Subdir,
		Timestamp:  link.Timestamp,
		URL:        link.URL,
		Version:    link.Version,
	}
}

// packageCaches lists configured caches followed by those the tool reports, without duplicates.
func (s *Solver) packageCaches(ctx context.Context, platform string) ([]string, error) {
	dirs := slices.Clone(s.pkgsDirs)
	if s.variant.ReportsPkgsDirs {
		out, err := s.runner.Run(ctx, Invocation{
			Platform: platform,
			Args:     []string{"info", "--json"},
			Env:      s.env(platform, nil),
		})
		if err != nil {
			return nil, zerr.Wrap(err, "failed to query package caches")
		}
		var info struct {
			PkgsDirs []string `json:"pkgs_dirs"`
		}
		if err := json.Unmarshal(out, &info); err != nil {
			return nil, zerr.Wrap(domain.ErrMalformedPlan, "cannot decode info output: "+err.Error())
		}
		dirs = append(dirs, info.PkgsDirs...)
	}

	seen := make(map[string]struct{}, len(dirs))
	out := dirs[:0]
	for _, dir := range dirs {
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}
	return out, nil
}

// readCacheRecord loads <dir>/<dist>/info/repodata_record.json from the first cache holding it.
func readCacheRecord(dirs []string, dist string) (domain.FetchAction, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, dist, "info", "repodata_record.json")
		//nolint:gosec // G304: cache directories come from configuration and the solver itself
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.FetchAction{}, zerr.With(zerr.Wrap(err, "failed to read cache record"), "path", path)
		}
		var rec domain.FetchAction
		if err := json.Unmarshal(data, &rec); err != nil {
			return domain.FetchAction{}, zerr.With(
				zerr.Wrap(domain.ErrMalformedPlan, "cannot decode cache record: "+err.Error()), "path", path)
		}
		return rec, nil
	}
	return domain.FetchAction{}, &domain.MissingCacheRecordError{DistName: dist, Searched: slices.Clone(dirs)}
}
