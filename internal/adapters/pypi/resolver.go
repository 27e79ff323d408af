package pypi

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const resolveConcurrency = 8

// Resolver locks pip requirements to concrete registry artifacts.
type Resolver struct {
	client *Client
	log    ports.Logger
}

// NewResolver creates a resolver backed by client.
func NewResolver(client *Client, log ports.Logger) *Resolver {
	return &Resolver{client: client, log: log}
}

// Resolve locks req.Requirements for req.Platform. Prior records are reused verbatim
// when they still satisfy their requirement and are not being updated.
// Editable and local requirements are reported in Excluded and never locked.
func (r *Resolver) Resolve(ctx context.Context, req domain.ManagedRequest) (*domain.ManagedResult, error) {
	result := &domain.ManagedResult{}

	prior := make(map[string]domain.LockedDependency, len(req.Locked))
	for _, dep := range req.Locked {
		if dep.Manager == domain.ManagerPip && dep.Platform == req.Platform {
			prior[dep.Name] = dep
		}
	}
	update := make(map[string]struct{}, len(req.Update))
	for _, name := range req.Update {
		update[domain.CanonicalName(domain.ManagerPip, name)] = struct{}{}
	}

	var pending []domain.Dependency
	for _, dep := range req.Requirements {
		if dep.IsLocal() {
			r.log.Warn("skipping local requirement " + dep.Name + " for " + req.Platform)
			result.Excluded = append(result.Excluded, dep)
			continue
		}
		pending = append(pending, dep)
	}
	if len(pending) == 0 {
		return result, nil
	}

	var tgt target
	if hasRegistryLookup(pending, prior, update) {
		var err error
		if tgt, err = newTarget(req.PythonVersion, req.Platform, req.VirtualPackages); err != nil {
			return nil, &domain.ArtifactResolutionError{
				Requirement: pending[0].Name,
				Platform:    req.Platform,
				Reason:      "python is not part of the native solution",
			}
		}
	}

	locked := make([]domain.LockedDependency, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, dep := range pending {
		g.Go(func() error {
			name := domain.CanonicalName(domain.ManagerPip, dep.Name)
			if p, ok := prior[name]; ok {
				if _, updating := update[name]; !updating && satisfies(p, dep) {
					locked[i] = p
					return nil
				}
			}
			rec, err := r.resolveOne(gctx, req.Platform, tgt, dep)
			if err != nil {
				return err
			}
			locked[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Packages = locked
	slices.SortFunc(result.Packages, func(a, b domain.LockedDependency) int { return cmp.Compare(a.Name, b.Name) })
	return result, nil
}

// hasRegistryLookup reports whether a requirement cannot be served from prior records.
func hasRegistryLookup(pending []domain.Dependency, prior map[string]domain.LockedDependency, update map[string]struct{}) bool {
	for _, dep := range pending {
		name := domain.CanonicalName(domain.ManagerPip, dep.Name)
		p, ok := prior[name]
		if _, updating := update[name]; !ok || updating || !satisfies(p, dep) {
			if dep.Kind() == domain.KindVersioned {
				return true
			}
		}
	}
	return false
}

// satisfies reports whether a prior record still meets dep.
func satisfies(prior domain.LockedDependency, dep domain.Dependency) bool {
	if dep.Kind() == domain.KindURL {
		return stripFragment(prior.URL) == stripFragment(dep.URL)
	}
	spec, err := ParseSpecifier(dep.Version)
	if err != nil {
		return false
	}
	v, err := ParseVersion(prior.Version)
	if err != nil {
		return false
	}
	return spec.Check(v)
}

func (r *Resolver) resolveOne(ctx context.Context, platform string, tgt target, dep domain.Dependency) (domain.LockedDependency, error) {
	name := domain.CanonicalName(domain.ManagerPip, dep.Name)
	if dep.Kind() == domain.KindURL {
		return r.resolveURL(ctx, platform, name, dep)
	}

	fail := func(reason string) error {
		return &domain.ArtifactResolutionError{
			Requirement: strings.TrimSpace(dep.Name + " " + dep.Version),
			Platform:    platform,
			Reason:      reason,
		}
	}

	spec, err := ParseSpecifier(dep.Version)
	if err != nil {
		return domain.LockedDependency{}, fail("invalid version constraint")
	}
	project, err := r.client.Project(ctx, name)
	if errors.Is(err, ErrProjectNotFound) {
		return domain.LockedDependency{}, fail("project not found")
	}
	if err != nil {
		return domain.LockedDependency{}, err
	}

	version, file, ok := selectRelease(project, spec, tgt)
	if !ok {
		return domain.LockedDependency{}, fail("no release satisfies the constraint with a compatible artifact")
	}

	digest := file.Digests["sha256"]
	if digest == "" {
		r.log.Debug("registry omits sha256 for " + file.Filename + ", downloading")
		if digest, err = r.client.Digest(ctx, file.URL); err != nil {
			return domain.LockedDependency{}, err
		}
	}

	deps := map[string]string{}
	if release, err := r.client.Release(ctx, name, version); err == nil {
		deps = requiresDist(release.Info.RequiresDist)
	} else if !errors.Is(err, ErrProjectNotFound) {
		return domain.LockedDependency{}, err
	}

	return domain.LockedDependency{
		Name:         name,
		Version:      version,
		Manager:      domain.ManagerPip,
		Platform:     platform,
		Dependencies: deps,
		URL:          file.URL,
		Hash:         "sha256:" + digest,
	}, nil
}

// resolveURL locks a direct reference, hashing the artifact unless a sha256 pin is given.
func (r *Resolver) resolveURL(ctx context.Context, platform, name string, dep domain.Dependency) (domain.LockedDependency, error) {
	hash := ""
	for _, h := range dep.Hashes {
		if strings.HasPrefix(h, "sha256:") {
			hash = h
			break
		}
	}
	artifact := stripFragment(dep.URL)
	if hash == "" {
		digest, err := r.client.Digest(ctx, artifact)
		if err != nil {
			return domain.LockedDependency{}, &domain.ArtifactResolutionError{
				Requirement: dep.Name,
				Platform:    platform,
				Reason:      "cannot download " + artifact + ": " + err.Error(),
			}
		}
		hash = "sha256:" + digest
	}

	version := ""
	if w, err := parseWheelFilename(path.Base(artifact)); err == nil {
		version = w.Version
	}
	return domain.LockedDependency{
		Name:         name,
		Version:      version,
		Manager:      domain.ManagerPip,
		Platform:     platform,
		Dependencies: map[string]string{},
		URL:          artifact,
		Hash:         hash,
	}, nil
}

type candidate struct {
	raw     string
	version Version
}

// selectRelease picks the highest version satisfying spec that has a usable artifact:
// the best-scoring compatible wheel, else an sdist. Pre-releases are considered only
// when no final release qualifies or spec names one.
func selectRelease(project *Project, spec *Specifier, tgt target) (string, File, bool) {
	var finals, pres []candidate
	for raw, files := range project.Releases {
		if len(files) == 0 {
			continue
		}
		v, err := ParseVersion(raw)
		if err != nil || !spec.Check(v) {
			continue
		}
		if v.IsPreRelease() {
			pres = append(pres, candidate{raw: raw, version: v})
			continue
		}
		finals = append(finals, candidate{raw: raw, version: v})
	}

	pools := [][]candidate{finals, pres}
	if spec.AllowsPrerelease() {
		pools = [][]candidate{slices.Concat(finals, pres)}
	}
	for _, pool := range pools {
		// "1.0" and "1.0.0" compare equal; the raw string keeps the pick stable.
		slices.SortFunc(pool, func(a, b candidate) int {
			return cmp.Or(b.version.Compare(a.version), cmp.Compare(b.raw, a.raw))
		})
		for _, c := range pool {
			if file, ok := bestFile(project.Releases[c.raw], tgt); ok {
				return c.raw, file, true
			}
		}
	}
	return "", File{}, false
}

// bestFile selects the highest-scoring compatible wheel, falling back to an sdist.
// Yanked files and files for an incompatible python are skipped.
func bestFile(files []File, tgt target) (File, bool) {
	var best, sdist File
	bestScore, haveSdist := 0, false
	for _, f := range files {
		if f.Yanked || !pythonAllowed(f.RequiresPython, tgt) {
			continue
		}
		switch f.PackageType {
		case "bdist_wheel":
			w, err := parseWheelFilename(f.Filename)
			if err != nil {
				continue
			}
			score, ok := tgt.score(w)
			if ok && (score > bestScore || score == bestScore && f.Filename < best.Filename) {
				best, bestScore = f, score
			}
		case "sdist":
			if !haveSdist {
				sdist, haveSdist = f, true
			}
		}
	}
	if bestScore > 0 {
		return best, true
	}
	return sdist, haveSdist
}

// pythonAllowed evaluates a requires_python specifier against the target interpreter.
// Unparsable specifiers do not exclude a file.
func pythonAllowed(requires string, tgt target) bool {
	if requires == "" || tgt.major == 0 {
		return true
	}
	spec, err := ParseSpecifier(requires)
	if err != nil {
		return true
	}
	v, err := pep440.Parse(fmt.Sprintf("%d.%d", tgt.major, tgt.minor))
	if err != nil {
		return true
	}
	return spec.Check(v)
}

// requiresDist maps unconditional Requires-Dist entries to their constraints.
// Entries only needed for extras are left out.
func requiresDist(entries []string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "extra ==") || strings.Contains(entry, "extra==") {
			continue
		}
		req, err := domain.ParseRequirement(strings.NewReplacer("(", "", ")", "").Replace(entry))
		if err != nil {
			continue
		}
		out[domain.CanonicalName(domain.ManagerPip, req.Name)] = strings.ReplaceAll(req.Constraint, " ", "")
	}
	return out
}

func stripFragment(u string) string {
	before, _, _ := strings.Cut(u, "#")
	return before
}
