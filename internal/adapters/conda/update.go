package conda

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Update re-solves the named packages on top of req.Locked, keeping every other
// installed package where it is.
func (s *Solver) Update(ctx context.Context, req domain.UpdateRequest) (*domain.InstallPlan, error) {
	prior, err := newPriorEnvironment(req.Platform, req.Locked)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := prior.Remove(); rerr != nil {
			s.log.Warn("failed to remove prior environment " + prior.root + ": " + rerr.Error())
		}
	}()

	env := s.env(req.Platform, req.VirtualPackages)
	installed, err := s.listInstalled(ctx, req.Platform, prior.prefix, env)
	if err != nil {
		return nil, err
	}

	toUpdate := intersectUpdate(installed, req.Update)
	plan := &domain.InstallPlan{}
	if len(toUpdate) > 0 {
		if s.variant.PinsUpdates {
			if err := prior.writePins(pinsExcept(installed, req.Update)); err != nil {
				return nil, zerr.With(err, "platform", req.Platform)
			}
			s.log.Warn("mamba cannot update single packages without pinning; " +
				"if the update fails to solve, try conda or micromamba instead")
		}

		args := []string{s.variant.UpdateVerb}
		args = append(args, s.flags...)
		args = append(args, channelArgs(req.Channels, req.Platform)...)
		args = append(args, "-p", prior.prefix, "--json", "--dry-run")
		args = append(args, updateSpecs(req.Specs, toUpdate)...)

		s.log.Debug("updating " + req.Platform + ": " + strings.Join(toUpdate, ", "))
		out, err := s.runner.Run(ctx, Invocation{Platform: req.Platform, Args: args, Env: env})
		if err != nil {
			return nil, solveFailure(req.Platform, err)
		}
		if plan, err = decodePlan(out); err != nil {
			return nil, zerr.With(err, "platform", req.Platform)
		}
	}

	carryForward(plan, installed, req.Locked, s.variant, req.Platform)
	return s.finish(ctx, req.Platform, plan)
}

func (s *Solver) listInstalled(
	ctx context.Context,
	platform, prefix string,
	env map[string]string,
) (map[string]domain.LinkAction, error) {
	out, err := s.runner.Run(ctx, Invocation{
		Platform: platform,
		Args:     []string{"list", "-p", prefix, "--json"},
		Env:      env,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to list prior environment"), "platform", platform)
	}
	var entries []domain.LinkAction
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrMalformedPlan, "cannot decode list output: "+err.Error()), "platform", platform)
	}
	installed := make(map[string]domain.LinkAction, len(entries))
	for _, entry := range entries {
		installed[entry.Name] = entry
	}
	return installed, nil
}

// intersectUpdate returns the sorted names requested for update that are installed.
func intersectUpdate(installed map[string]domain.LinkAction, update []string) []string {
	var out []string
	for _, name := range update {
		if _, ok := installed[name]; ok && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// pinsExcept pins every installed package not requested for update to its current version.
func pinsExcept(installed map[string]domain.LinkAction, update []string) []string {
	var pins []string
	for _, name := range slices.Sorted(maps.Keys(installed)) {
		if slices.Contains(update, name) {
			continue
		}
		pins = append(pins, name+" =="+installed[name].Version)
	}
	return pins
}

// updateSpecs selects the declared match spec of each name, or the bare name when undeclared.
func updateSpecs(specs []domain.Dependency, names []string) []string {
	byName := make(map[string]string, len(specs))
	for _, dep := range specs {
		byName[dep.Name] = matchSpec(dep)
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if spec, ok := byName[name]; ok {
			out = append(out, spec)
			continue
		}
		out = append(out, name)
	}
	return out
}

// carryForward adds every installed package the solver left untouched to both LINK and
// FETCH, rebuilding its fetch record from the prior lock. Prior records without a URL
// never reach the prefix and are carried as locked unless the solver linked them.
func carryForward(
	plan *domain.InstallPlan,
	installed map[string]domain.LinkAction,
	locked []domain.LockedDependency,
	variant Variant,
	platform string,
) {
	linked := make(map[string]struct{}, len(plan.Link))
	for _, l := range plan.Link {
		linked[l.Name] = struct{}{}
	}
	prior := make(map[string]domain.LockedDependency, len(locked))
	for _, dep := range locked {
		if dep.Manager != domain.ManagerConda || dep.Platform != platform {
			continue
		}
		prior[dep.Name] = dep
		_, relinked := linked[dep.Name]
		_, listed := installed[dep.Name]
		if dep.URL == "" && !relinked && !listed {
			plan.Carried = append(plan.Carried, dep)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(installed)) {
		if _, ok := linked[name]; ok {
			continue
		}
		entry := installed[name]
		subdir := entry.Platform
		if subdir == "" {
			subdir = platform
		}
		channel := entry.BaseURL
		if !variant.BaseURLIncludesSubdir {
			channel = entry.BaseURL + "/" + subdir
		}
		fn := entry.DistName + ".tar.bz2"

		dep := prior[name]
		pkgURL := dep.URL
		if pkgURL == "" {
			pkgURL = channel + "/" + fn
		}

		plan.Fetch = append(plan.Fetch, domain.FetchAction{
			Channel:    channel,
			Constrains: []string{},
			Depends:    domain.FormatDepends(dep.Dependencies),
			Fn:         fn,
			MD5:        strings.TrimPrefix(dep.Hash, "md5:"),
			Name:       entry.Name,
			Subdir:     subdir,
			Timestamp:  0,
			URL:        pkgURL,
			Version:    entry.Version,
		})
		plan.Link = append(plan.Link, entry)
	}
}
