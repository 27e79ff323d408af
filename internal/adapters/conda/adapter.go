package conda

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Solver runs dry-run solves against one solver executable.
type Solver struct {
	variant  Variant
	pkgsDirs []string
	flags    []string
	runner   Runner
	log      ports.Logger
}

// NewSolver creates a solver for variant that invokes the tool through runner.
func NewSolver(variant Variant, runner Runner, log ports.Logger, cfg domain.SolverConfig) *Solver {
	return &Solver{
		variant:  variant,
		pkgsDirs: slices.Clone(cfg.PkgsDirs),
		flags:    slices.Clone(cfg.ExtraFlags),
		runner:   runner,
		log:      log,
	}
}

// Variant returns the tool variant this solver drives.
func (s *Solver) Variant() Variant {
	return s.variant
}

// Solve computes a fresh install plan for req.Platform.
func (s *Solver) Solve(ctx context.Context, req domain.SolveRequest) (*domain.InstallPlan, error) {
	tmp, err := os.MkdirTemp("", "lockforge-solve-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create solve prefix")
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	args := []string{"create", "--prefix", filepath.Join(tmp, "prefix"), "--dry-run", "--json"}
	args = append(args, s.flags...)
	args = append(args, channelArgs(req.Channels, req.Platform)...)
	args = append(args, matchSpecs(req.Specs)...)

	s.log.Debug("solving " + req.Platform + ": " + strings.Join(args, " "))
	out, err := s.runner.Run(ctx, Invocation{
		Platform: req.Platform,
		Args:     args,
		Env:      s.env(req.Platform, req.VirtualPackages),
	})
	if err != nil {
		return nil, solveFailure(req.Platform, err)
	}

	plan, err := decodePlan(out)
	if err != nil {
		return nil, zerr.With(err, "platform", req.Platform)
	}
	return s.finish(ctx, req.Platform, plan)
}

// finish fills in fetch records for every linked package and checks completeness.
func (s *Solver) finish(ctx context.Context, platform string, plan *domain.InstallPlan) (*domain.InstallPlan, error) {
	if err := s.reconcile(ctx, platform, plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, zerr.With(err, "platform", platform)
	}
	return plan, nil
}

// env is the per-invocation environment. It never mutates the process environment.
func (s *Solver) env(platform string, virtual []domain.VirtualPackage) map[string]string {
	env := map[string]string{
		"CONDA_SUBDIR":                          platform,
		"CONDA_UNSATISFIABLE_HINTS_CHECK_DEPTH": "0",
		"CONDA_ADD_PIP_AS_PYTHON_DEPENDENCY":    "False",
	}
	if len(s.pkgsDirs) > 0 {
		env["CONDA_PKGS_DIRS"] = strings.Join(s.pkgsDirs, ",")
	}
	maps.Copy(env, virtualOverrides(virtual))
	return env
}

// virtualOverrides maps virtual packages onto the CONDA_OVERRIDE_* variables the tools honor.
// An absent __cuda is forced empty so the host GPU does not leak into the solve.
func virtualOverrides(virtual []domain.VirtualPackage) map[string]string {
	if len(virtual) == 0 {
		return nil
	}
	out := map[string]string{"CONDA_OVERRIDE_CUDA": ""}
	for _, vp := range virtual {
		switch vp.Name {
		case "__glibc":
			out["CONDA_OVERRIDE_GLIBC"] = vp.Version
		case "__cuda":
			out["CONDA_OVERRIDE_CUDA"] = vp.Version
		case "__osx":
			out["CONDA_OVERRIDE_OSX"] = vp.Version
		case "__archspec":
			out["CONDA_OVERRIDE_ARCHSPEC"] = vp.Build
		}
	}
	return out
}

// channelArgs pins the solve to channels in priority order. Windows solves against
// defaults also need msys2.
func channelArgs(channels []string, platform string) []string {
	args := []string{"--override-channels"}
	for _, ch := range channels {
		args = append(args, "--channel", ch)
		if ch == "defaults" && (platform == "win-64" || platform == "win-32") {
			args = append(args, "--channel", "msys2")
		}
	}
	return args
}

// matchSpecs renders native dependencies as match specs, e.g. numpy[version='>=1.20'].
func matchSpecs(deps []domain.Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, dep := range deps {
		out = append(out, matchSpec(dep))
	}
	return out
}

func matchSpec(dep domain.Dependency) string {
	switch {
	case dep.URL != "":
		return dep.URL
	case dep.Version != "":
		return dep.Name + "[version='" + dep.Version + "']"
	default:
		return dep.Name
	}
}

type dryRunOutput struct {
	Actions *struct {
		Link  []domain.LinkAction  `json:"LINK"`
		Fetch []domain.FetchAction `json:"FETCH"`
	} `json:"actions"`
}

// decodePlan parses dry-run JSON. Output without actions means nothing needs to change.
func decodePlan(out []byte) (*domain.InstallPlan, error) {
	var parsed dryRunOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, zerr.Wrap(domain.ErrMalformedPlan, "cannot decode dry-run output: "+err.Error())
	}
	plan := &domain.InstallPlan{}
	if parsed.Actions != nil {
		plan.Link = parsed.Actions.Link
		plan.Fetch = parsed.Actions.Fetch
	}
	return plan, nil
}

// solveFailure converts a runner error into a domain error for platform.
func solveFailure(platform string, err error) error {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	msg := failureMessage(exitErr.Stdout)
	if msg == "" {
		msg = strings.TrimSpace(exitErr.Stderr)
	}
	return &domain.SolveError{Platform: platform, Message: msg}
}

// failureMessage extracts the most specific explanation from the solver's JSON output,
// falling back to the raw text.
func failureMessage(stdout []byte) string {
	raw := strings.TrimSpace(string(stdout))
	var body map[string]any
	if err := json.Unmarshal(stdout, &body); err != nil {
		return raw
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	if problems, ok := body["solver_problems"].([]any); ok && len(problems) > 0 {
		parts := make([]string, 0, len(problems))
		for _, p := range problems {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
	}
	return raw
}
