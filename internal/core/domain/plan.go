package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// FetchAction describes a package artifact the solver would download.
type FetchAction struct {
	Channel    string   `json:"channel"`
	Constrains []string `json:"constrains"`
	Depends    []string `json:"depends"`
	Fn         string   `json:"fn"`
	MD5        string   `json:"md5"`
	SHA256     string   `json:"sha256,omitempty"`
	Name       string   `json:"name"`
	Subdir     string   `json:"subdir"`
	Timestamp  int64    `json:"timestamp"`
	URL        string   `json:"url"`
	Version    string   `json:"version"`
}

// LinkAction describes a package the solver would link into the environment.
// Micromamba reports the full record here, other variants only identity fields.
type LinkAction struct {
	BaseURL     string   `json:"base_url"`
	BuildNumber int      `json:"build_number"`
	BuildString string   `json:"build_string"`
	Channel     string   `json:"channel"`
	DistName    string   `json:"dist_name"`
	Name        string   `json:"name"`
	Platform    string   `json:"platform"`
	Version     string   `json:"version"`
	Constrains  []string `json:"constrains,omitempty"`
	Depends     []string `json:"depends,omitempty"`
	Fn          string   `json:"fn,omitempty"`
	MD5         string   `json:"md5,omitempty"`
	Subdir      string   `json:"subdir,omitempty"`
	Timestamp   int64    `json:"timestamp,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// InstallPlan is the parsed dry-run result of the native solver.
type InstallPlan struct {
	Link  []LinkAction
	Fetch []FetchAction
	// Carried are prior records with no artifact, such as virtual packages, kept as locked.
	Carried []LockedDependency
}

// LinkOnly returns the LINK entries with no FETCH entry of the same name.
func (p *InstallPlan) LinkOnly() []LinkAction {
	fetched := make(map[string]struct{}, len(p.Fetch))
	for _, f := range p.Fetch {
		fetched[f.Name] = struct{}{}
	}
	var out []LinkAction
	for _, l := range p.Link {
		if _, ok := fetched[l.Name]; !ok {
			out = append(out, l)
		}
	}
	return out
}

// Validate checks that every LINK entry has a FETCH entry carrying url, name and version.
func (p *InstallPlan) Validate() error {
	fetched := make(map[string]FetchAction, len(p.Fetch))
	for _, f := range p.Fetch {
		fetched[f.Name] = f
	}
	for _, l := range p.Link {
		f, ok := fetched[l.Name]
		if !ok {
			return zerr.With(zerr.Wrap(ErrIncompletePlan, "linked package has no fetch record"), "package", l.Name)
		}
		if f.URL == "" || f.Name == "" || f.Version == "" {
			return zerr.With(zerr.Wrap(ErrIncompletePlan, "fetch record lacks url, name or version"), "package", l.Name)
		}
	}
	return nil
}

// LockedDependencies converts the FETCH entries and carried records into native
// records for platform, sorted by name. Categories are left for ApplyCategories.
func (p *InstallPlan) LockedDependencies(platform string) []LockedDependency {
	out := make([]LockedDependency, 0, len(p.Fetch)+len(p.Carried))
	for _, dep := range p.Carried {
		dep.Manager, dep.Platform = ManagerConda, platform
		dep.Categories, dep.Optional = nil, false
		out = append(out, dep)
	}
	for _, f := range p.Fetch {
		hash := ""
		if f.MD5 != "" {
			hash = "md5:" + f.MD5
		}
		out = append(out, LockedDependency{
			Name:         f.Name,
			Version:      f.Version,
			Manager:      ManagerConda,
			Platform:     platform,
			Dependencies: ParseDepends(f.Depends),
			URL:          f.URL,
			Hash:         hash,
		})
	}
	slices.SortFunc(out, func(a, b LockedDependency) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// ParseDepends turns "name constraint..." entries into a name to constraint map.
func ParseDepends(depends []string) map[string]string {
	out := make(map[string]string, len(depends))
	for _, entry := range depends {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		out[fields[0]] = strings.Join(fields[1:], " ")
	}
	return out
}

// FormatDepends is the inverse of ParseDepends, sorted by name.
func FormatDepends(deps map[string]string) []string {
	out := make([]string, 0, len(deps))
	for name, constraint := range deps {
		out = append(out, strings.TrimSpace(name+" "+constraint))
	}
	slices.Sort(out)
	return out
}
