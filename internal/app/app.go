// Package app implements the application layer for lockforge.
package app

import (
	"context"
	"slices"
	"time"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports"
	"go.trai.ch/lockforge/internal/engine/locker"
	"go.trai.ch/zerr"
)

// LockOptions configures one lock run. Zero values fall back to the settings.
type LockOptions struct {
	Files     []string
	Platforms []string
	Update    []string

	Executable string
	Variant    string

	VirtualSpec string
	// VirtualOverrides pin virtual package versions by name.
	VirtualOverrides map[string]string

	CheckInputHash   bool
	Credentials      string
	Workers          int
	Timeout          time.Duration
	LockFile         string
	Kinds            []string
	FilenameTemplate string
}

// RenderOptions configures rendering explicit files from a stored lock.
type RenderOptions struct {
	LockFile         string
	Platforms        []string
	Credentials      string
	FilenameTemplate string
}

// App represents the main application logic.
type App struct {
	settings domain.Settings
	parser   ports.SpecParser
	virtual  ports.VirtualPackages
	store    ports.LockStore
	renderer ports.ExplicitRenderer
	creds    ports.CredentialStore
	locker   *locker.Locker
	log      ports.Logger
}

// New creates a new App instance.
func New(
	settings domain.Settings,
	parser ports.SpecParser,
	virtual ports.VirtualPackages,
	store ports.LockStore,
	renderer ports.ExplicitRenderer,
	creds ports.CredentialStore,
	lk *locker.Locker,
	log ports.Logger,
) *App {
	return &App{
		settings: settings,
		parser:   parser,
		virtual:  virtual,
		store:    store,
		renderer: renderer,
		creds:    creds,
		locker:   lk,
		log:      log,
	}
}

// Settings returns the settings the App was built with.
func (a *App) Settings() domain.Settings {
	return a.settings
}

// Lock parses the input files, resolves every platform and writes the requested outputs.
func (a *App) Lock(ctx context.Context, opts LockOptions) (*domain.Lock, error) {
	opts = a.withDefaults(opts)
	for _, kind := range opts.Kinds {
		if kind != domain.KindLock && kind != domain.KindExplicit {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedKind, "cannot write output"), "kind", kind)
		}
	}

	// 1. Load the prior lock
	prior, err := a.store.Load(opts.LockFile)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load prior lock")
	}

	// 2. Build the specification
	spec, err := a.specification(opts, prior)
	if err != nil {
		return nil, err
	}

	// 3. Resolve
	lock, err := a.locker.Lock(ctx, locker.Request{
		Spec:           spec,
		Prior:          prior,
		Update:         opts.Update,
		CheckInputHash: opts.CheckInputHash,
		Solver:         a.solverConfig(opts),
		Workers:        opts.Workers,
	})
	if err != nil {
		return nil, err
	}

	// 4. Write outputs
	if slices.Contains(opts.Kinds, domain.KindLock) {
		if err := a.store.Save(opts.LockFile, lock); err != nil {
			return nil, zerr.Wrap(err, "failed to save lock")
		}
		a.log.Info("Wrote " + opts.LockFile)
	}
	if slices.Contains(opts.Kinds, domain.KindExplicit) {
		if err := a.renderExplicit(lock, lock.Metadata.Platforms, opts.Credentials, opts.FilenameTemplate); err != nil {
			return nil, err
		}
	}
	return lock, nil
}

// Render writes explicit files for a stored lock with credentials injected.
func (a *App) Render(opts RenderOptions) error {
	if opts.LockFile == "" {
		opts.LockFile = a.settings.LockFile
	}
	if opts.Credentials == "" {
		opts.Credentials = a.settings.Credentials
	}

	lock, err := a.store.Load(opts.LockFile)
	if err != nil {
		return zerr.Wrap(err, "failed to load lock")
	}
	if lock == nil {
		return zerr.With(zerr.Wrap(domain.ErrLockNotFound, "cannot render"), "path", opts.LockFile)
	}

	platforms := opts.Platforms
	if len(platforms) == 0 {
		platforms = lock.Metadata.Platforms
	}
	return a.renderExplicit(lock, platforms, opts.Credentials, opts.FilenameTemplate)
}

func (a *App) renderExplicit(lock *domain.Lock, platforms []string, credPath, tmpl string) error {
	creds, err := a.credentials(credPath)
	if err != nil {
		return err
	}
	paths, err := a.renderer.Render(lock, platforms, tmpl, creds)
	if err != nil {
		return zerr.Wrap(err, "failed to render explicit lock")
	}
	for _, path := range paths {
		a.log.Info("Wrote " + path)
	}
	return nil
}

// credentials loads the configured credential file and overlays path on it, so a
// file given per invocation wins host by host.
func (a *App) credentials(path string) (domain.Credentials, error) {
	base, err := a.creds.Load(a.settings.Credentials)
	if err != nil {
		return nil, err
	}
	if path == "" || path == a.settings.Credentials {
		return base, nil
	}
	extra, err := a.creds.Load(path)
	if err != nil {
		return nil, err
	}
	return base.Merge(extra), nil
}

// specification parses and merges the input files. Inputs default to the prior
// lock's sources; platforms come from the caller, then the files, then the prior
// lock, then the built-in defaults.
func (a *App) specification(opts LockOptions, prior *domain.Lock) (*domain.LockSpecification, error) {
	files := opts.Files
	if len(files) == 0 && prior != nil {
		files = prior.Metadata.Sources
	}
	if len(files) == 0 {
		files = []string{domain.DefaultSpecFile}
	}

	specs := make([]*domain.LockSpecification, 0, len(files))
	for _, path := range files {
		spec, err := a.parser.Parse(path, opts.Platforms)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse specification"), "path", path)
		}
		specs = append(specs, spec)
	}
	spec, err := domain.Aggregate(specs...)
	if err != nil {
		return nil, err
	}

	switch {
	case len(opts.Platforms) > 0:
		spec.Platforms = slices.Clone(opts.Platforms)
	case len(spec.Platforms) > 0:
	case prior != nil && len(prior.Metadata.Platforms) > 0:
		spec.Platforms = slices.Clone(prior.Metadata.Platforms)
	default:
		spec.Platforms = slices.Clone(domain.DefaultPlatforms)
	}

	repo, err := a.virtual.Repository(domain.VirtualPackageOptions{
		SpecFile:  opts.VirtualSpec,
		Overrides: opts.VirtualOverrides,
		Platforms: spec.Platforms,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to build virtual packages")
	}
	spec.VirtualPackages = repo
	return spec, nil
}

func (a *App) withDefaults(opts LockOptions) LockOptions {
	if opts.LockFile == "" {
		opts.LockFile = a.settings.LockFile
	}
	if opts.Credentials == "" {
		opts.Credentials = a.settings.Credentials
	}
	if opts.Workers < 1 {
		opts.Workers = a.settings.Workers
	}
	if len(opts.Kinds) == 0 {
		opts.Kinds = []string{domain.KindLock}
	}
	if opts.FilenameTemplate == "" {
		opts.FilenameTemplate = domain.DefaultFilenameTemplate
	}
	return opts
}

func (a *App) solverConfig(opts LockOptions) domain.SolverConfig {
	cfg := a.settings.Solver
	cfg.PkgsDirs = slices.Clone(cfg.PkgsDirs)
	cfg.ExtraFlags = slices.Clone(cfg.ExtraFlags)
	if opts.Executable != "" {
		cfg.Executable = opts.Executable
	}
	if opts.Variant != "" {
		cfg.Variant = opts.Variant
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	return cfg
}
