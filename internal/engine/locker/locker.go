// Package locker drives native and managed resolution for every target platform.
package locker

import (
	"context"
	"errors"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const pythonPackage = "python"

// Request describes one lock run.
type Request struct {
	Spec *domain.LockSpecification
	// Prior is the existing lock, or nil.
	Prior *domain.Lock
	// Update names the packages allowed to move away from Prior.
	Update []string
	// CheckInputHash reuses Prior's records for platforms whose content hash is unchanged.
	CheckInputHash bool
	Solver         domain.SolverConfig
	Workers        int
}

// Mode records how a platform was locked.
type Mode string

const (
	// ModeSolve is a fresh native solve.
	ModeSolve Mode = "solve"
	// ModeUpdate moves a subset of the prior native resolution.
	ModeUpdate Mode = "update"
	// ModeSkip reuses the prior records unchanged.
	ModeSkip Mode = "skip"
)

// Locker resolves a specification into a lock.
type Locker struct {
	solvers  ports.SolverFactory
	resolver ports.ManagedResolver
	virtual  ports.VirtualPackages
	tracer   ports.Tracer
	log      ports.Logger
}

// New creates a Locker.
func New(
	solvers ports.SolverFactory,
	resolver ports.ManagedResolver,
	virtual ports.VirtualPackages,
	tracer ports.Tracer,
	log ports.Logger,
) *Locker {
	return &Locker{
		solvers:  solvers,
		resolver: resolver,
		virtual:  virtual,
		tracer:   tracer,
		log:      log,
	}
}

// platformRun carries the per-platform inputs shared by every stage.
type platformRun struct {
	platform string
	hash     string
	channels []string
	virtual  string
	packages []domain.VirtualPackage
}

// Lock resolves every platform of req.Spec. Platforms run concurrently and a failing
// platform does not stop the others; all failures are returned together, joined
// under ErrLockFailed.
func (l *Locker) Lock(ctx context.Context, req Request) (*domain.Lock, error) {
	spec := req.Spec
	hashes, err := spec.ContentHash()
	if err != nil {
		return nil, err
	}

	solver, err := l.solvers.New(req.Solver)
	if err != nil {
		return nil, err
	}

	virtualURL := ""
	if spec.VirtualPackages != nil {
		dir, err := os.MkdirTemp("", "lockforge-virtual-*")
		if err != nil {
			return nil, zerr.Wrap(err, "failed to create virtual package channel")
		}
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				l.log.Warn("failed to remove virtual package channel " + dir)
			}
		}()
		virtualURL, err = l.virtual.WriteChannel(spec.VirtualPackages, dir)
		if err != nil {
			return nil, err
		}
	}

	results := make([][]domain.LockedDependency, len(spec.Platforms))
	var (
		mu       sync.Mutex
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, req.Workers))
	for i, platform := range spec.Platforms {
		run := platformRun{
			platform: platform,
			hash:     hashes[platform],
			channels: slices.Clone(spec.Channels),
			virtual:  virtualURL,
		}
		if virtualURL != "" {
			run.channels = append(run.channels, virtualURL)
			noarch, native := spec.VirtualPackages.ForPlatform(platform)
			run.packages = slices.Concat(noarch, native)
		}

		g.Go(func() error {
			deps, err := l.lockPlatform(gctx, solver, req, run)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				failures = append(failures, zerr.With(zerr.Wrap(err, "failed to lock platform"), "platform", platform))
				mu.Unlock()
				return nil
			}
			results[i] = deps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, zerr.Wrap(err, "lock interrupted")
	}
	if len(failures) > 0 {
		return nil, errors.Join(append([]error{domain.ErrLockFailed}, failures...)...)
	}

	meta := domain.LockMetadata{
		ContentHash: hashes,
		Channels:    spec.Channels,
		Platforms:   spec.Platforms,
		Sources:     spec.Sources,
	}
	return domain.NewLock(meta, results...)
}

func (l *Locker) lockPlatform(ctx context.Context, solver ports.NativeSolver, req Request, run platformRun) ([]domain.LockedDependency, error) {
	ctx, span := l.tracer.Start(ctx, "lock "+run.platform)
	defer span.End()
	span.SetAttribute("platform", run.platform)
	span.SetAttribute("content_hash", run.hash)

	if req.CheckInputHash && len(req.Update) == 0 && req.Prior != nil &&
		req.Prior.Metadata.ContentHash[run.platform] == run.hash {
		l.log.Info("Spec hash already locked for " + run.platform)
		span.SetAttribute("mode", string(ModeSkip))
		return req.Prior.PlatformPackages(run.platform), nil
	}

	native, mode, err := l.lockNative(ctx, solver, req, run)
	span.SetAttribute("mode", string(mode))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	managed, err := l.lockManaged(ctx, req, run, native)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("packages", len(native)+len(managed))

	out := slices.Collect(maps.Values(native))
	out = append(out, slices.Collect(maps.Values(managed))...)
	domain.SortLocked(out)
	return out, nil
}

func (l *Locker) lockNative(
	ctx context.Context,
	solver ports.NativeSolver,
	req Request,
	run platformRun,
) (map[string]domain.LockedDependency, Mode, error) {
	solveReq := domain.SolveRequest{
		Platform:        run.platform,
		Channels:        run.channels,
		Specs:           req.Spec.DependenciesFor(domain.ManagerConda),
		VirtualPackages: run.packages,
	}

	prior := req.Prior.ForPlatform(run.platform, domain.ManagerConda)
	mode := ModeSolve
	var (
		plan *domain.InstallPlan
		err  error
	)
	if len(req.Update) > 0 && len(prior) > 0 {
		mode = ModeUpdate
		l.log.Debug("updating " + strings.Join(req.Update, ", ") + " for " + run.platform)
		plan, err = solver.Update(ctx, domain.UpdateRequest{
			SolveRequest: solveReq,
			Locked:       sortedValues(prior),
			Update:       req.Update,
		})
	} else {
		l.log.Debug("solving " + run.platform)
		plan, err = solver.Solve(ctx, solveReq)
	}
	if err != nil {
		return nil, mode, err
	}

	planned := make(map[string]domain.LockedDependency)
	for _, dep := range plan.LockedDependencies(run.platform) {
		if run.virtual != "" && strings.HasPrefix(dep.URL, run.virtual) {
			dep.URL = ""
			dep.Hash = ""
		}
		planned[dep.Name] = dep
	}
	return domain.ApplyCategories(solveReq.Specs, planned), mode, nil
}

func (l *Locker) lockManaged(
	ctx context.Context,
	req Request,
	run platformRun,
	native map[string]domain.LockedDependency,
) (map[string]domain.LockedDependency, error) {
	declared := req.Spec.DependenciesFor(domain.ManagerPip)
	if len(declared) == 0 {
		return nil, nil
	}

	requirements := make([]domain.Dependency, 0, len(declared))
	for _, dep := range declared {
		dep.Name = domain.CanonicalName(domain.ManagerPip, dep.Name)
		requirements = append(requirements, dep)
	}
	update := make([]string, 0, len(req.Update))
	for _, name := range req.Update {
		update = append(update, domain.CanonicalName(domain.ManagerPip, name))
	}

	result, err := l.resolver.Resolve(ctx, domain.ManagedRequest{
		Platform:        run.platform,
		PythonVersion:   native[pythonPackage].Version,
		Requirements:    mergeRequirements(requirements),
		VirtualPackages: run.packages,
		Locked:          sortedValues(req.Prior.ForPlatform(run.platform, domain.ManagerPip)),
		Update:          update,
	})
	if err != nil {
		return nil, err
	}
	planned := make(map[string]domain.LockedDependency, len(result.Packages))
	for _, dep := range result.Packages {
		if prev, ok := planned[dep.Name]; ok && !prev.Equal(dep) {
			err := zerr.Wrap(&domain.ConsistencyError{Key: dep.Key()}, "requirements resolved to different records")
			err = zerr.With(err, "first_version", prev.Version)
			return nil, zerr.With(err, "second_version", dep.Version)
		}
		planned[dep.Name] = dep
	}
	return domain.ApplyCategories(requirements, planned), nil
}

// mergeRequirements joins the constraints of versioned requirements sharing a name,
// so "requests>=2" in main and "requests<2.30" in dev resolve to one release.
// URL and local requirements are passed through unchanged.
func mergeRequirements(deps []domain.Dependency) []domain.Dependency {
	out := make([]domain.Dependency, 0, len(deps))
	index := make(map[string]int, len(deps))
	for _, dep := range deps {
		i, seen := index[dep.Name]
		mergeable := dep.Kind() == domain.KindVersioned && !dep.IsLocal()
		if !seen || !mergeable || out[i].Kind() != domain.KindVersioned || out[i].IsLocal() {
			if mergeable && !seen {
				index[dep.Name] = len(out)
			}
			out = append(out, dep.WithCategory(dep.Category, dep.Optional))
			continue
		}

		merged := &out[i]
		constraints := slices.DeleteFunc([]string{merged.Version, dep.Version}, func(c string) bool {
			return strings.TrimSpace(c) == "" || strings.TrimSpace(c) == "*"
		})
		merged.Version = strings.Join(constraints, ",")
		for _, extra := range dep.Extras {
			if !slices.Contains(merged.Extras, extra) {
				merged.Extras = append(merged.Extras, extra)
			}
		}
		merged.Optional = merged.Optional && dep.Optional
	}
	return out
}

func sortedValues(m map[string]domain.LockedDependency) []domain.LockedDependency {
	out := slices.Collect(maps.Values(m))
	domain.SortLocked(out)
	return out
}
