package locker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/lockforge/internal/adapters/telemetry"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports/mocks"
	"go.trai.ch/lockforge/internal/engine/locker"
	"go.uber.org/mock/gomock"
)

const virtualURL = "file:///tmp/lockforge-virtual-1"

func testSpec() *domain.LockSpecification {
	return &domain.LockSpecification{
		Dependencies: []domain.Dependency{
			domain.NewVersionedDependency("python", domain.ManagerConda, "3.11.*"),
			domain.NewVersionedDependency("numpy", domain.ManagerConda, ">=1.26"),
			domain.NewVersionedDependency("pytest", domain.ManagerConda, "").WithCategory(domain.CategoryDev, true),
			domain.NewVersionedDependency("Requests", domain.ManagerPip, ">=2.31"),
		},
		Channels:  []string{"conda-forge"},
		Platforms: []string{"linux-64", "osx-arm64"},
		Sources:   []string{"environment.yml"},
		VirtualPackages: &domain.VirtualPackageRepository{Subdirs: map[string][]domain.VirtualPackage{
			domain.PlatformNoarch: {},
			"linux-64":            {{Name: "__glibc", Version: "2.17", Build: "0"}},
			"osx-arm64":           {{Name: "__osx", Version: "11.0", Build: "0"}},
		}},
	}
}

func planFor(platform string) *domain.InstallPlan {
	base := "https://conda.anaconda.org/conda-forge/" + platform + "/"
	fetch := []domain.FetchAction{
		{Name: "python", Version: "3.11.4", URL: base + "python-3.11.4-h0_0_cpython.conda", MD5: "aa", Depends: []string{"libzlib >=1.2.13"}},
		{Name: "libzlib", Version: "1.2.13", URL: base + "libzlib-1.2.13-h0_5.conda", MD5: "bb"},
		{Name: "numpy", Version: "1.26.0", URL: base + "numpy-1.26.0-py311h0_0.conda", MD5: "cc", Depends: []string{"python >=3.11"}},
		{Name: "pytest", Version: "7.4.0", URL: "https://conda.anaconda.org/conda-forge/noarch/pytest-7.4.0-pyhd8ed1ab_0.conda", MD5: "dd", Depends: []string{"python >=3.8", "iniconfig"}},
		{Name: "iniconfig", Version: "2.0.0", URL: "https://conda.anaconda.org/conda-forge/noarch/iniconfig-2.0.0-pyhd8ed1ab_0.conda", MD5: "ee"},
	}
	if platform == "linux-64" {
		fetch = append(fetch, domain.FetchAction{Name: "__glibc", Version: "2.17", URL: virtualURL + "/linux-64/__glibc-2.17-0.tar.bz2"})
	}
	return &domain.InstallPlan{Fetch: fetch}
}

func requestsFor(platform string) *domain.ManagedResult {
	return &domain.ManagedResult{Packages: []domain.LockedDependency{{
		Name:         "requests",
		Version:      "2.31.0",
		Manager:      domain.ManagerPip,
		Platform:     platform,
		Dependencies: map[string]string{},
		URL:          "https://files.pythonhosted.org/packages/requests-2.31.0-py3-none-any.whl",
		Hash:         "sha256:58cd",
	}}}
}

type fixture struct {
	factory  *mocks.MockSolverFactory
	solver   *mocks.MockNativeSolver
	resolver *mocks.MockManagedResolver
	virtual  *mocks.MockVirtualPackages
	log      *mocks.MockLogger
	locker   *locker.Locker
}

func newFixture(t *testing.T, tracer *telemetry.OTelTracer) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		factory:  mocks.NewMockSolverFactory(ctrl),
		solver:   mocks.NewMockNativeSolver(ctrl),
		resolver: mocks.NewMockManagedResolver(ctrl),
		virtual:  mocks.NewMockVirtualPackages(ctrl),
		log:      mocks.NewMockLogger(ctrl),
	}
	f.log.EXPECT().Debug(gomock.Any()).AnyTimes()
	f.factory.EXPECT().New(gomock.Any()).Return(f.solver, nil).AnyTimes()
	f.virtual.EXPECT().WriteChannel(gomock.Any(), gomock.Any()).Return(virtualURL, nil).AnyTimes()

	if tracer == nil {
		tracer = telemetry.NewOTelTracer(telemetry.InstrumentationName)
	}
	f.locker = locker.New(f.factory, f.resolver, f.virtual, tracer, f.log)
	return f
}

func byKey(lock *domain.Lock) map[string]domain.LockedDependency {
	out := make(map[string]domain.LockedDependency, len(lock.Packages))
	for _, dep := range lock.Packages {
		out[dep.Key().String()] = dep
	}
	return out
}

func TestLocker_Solve(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t, telemetry.NewOTelTracerFrom(provider.Tracer("test")))
	spec := testSpec()

	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.SolveRequest) (*domain.InstallPlan, error) {
			assert.Equal(t, []string{"conda-forge", virtualURL}, req.Channels)
			assert.Len(t, req.Specs, 3)
			assert.Len(t, req.VirtualPackages, 1)
			return planFor(req.Platform), nil
		}).Times(2)
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.ManagedRequest) (*domain.ManagedResult, error) {
			assert.Equal(t, "3.11.4", req.PythonVersion)
			if assert.Len(t, req.Requirements, 1) {
				assert.Equal(t, "requests", req.Requirements[0].Name)
			}
			return requestsFor(req.Platform), nil
		}).Times(2)

	lock, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec, Workers: 2})
	require.NoError(t, err)

	hashes, err := spec.ContentHash()
	require.NoError(t, err)
	assert.Equal(t, hashes, lock.Metadata.ContentHash)
	assert.Equal(t, spec.Platforms, lock.Metadata.Platforms)
	assert.Len(t, lock.Packages, 13)

	got := byKey(lock)
	glibc := got["conda:__glibc@linux-64"]
	assert.Empty(t, glibc.URL, "virtual channel paths never reach the lock")
	assert.Empty(t, glibc.Hash)

	pytest := got["conda:pytest@linux-64"]
	assert.Equal(t, []string{domain.CategoryDev}, pytest.Categories)
	assert.True(t, pytest.Optional)

	iniconfig := got["conda:iniconfig@osx-arm64"]
	assert.Equal(t, []string{domain.CategoryDev}, iniconfig.Categories)
	assert.True(t, iniconfig.Optional)

	python := got["conda:python@linux-64"]
	assert.Equal(t, []string{domain.CategoryDev, domain.CategoryMain}, python.Categories)
	assert.False(t, python.Optional)

	requests := got["pip:requests@osx-arm64"]
	assert.Equal(t, []string{domain.CategoryMain}, requests.Categories)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	for _, span := range ended {
		assert.Contains(t, span.Attributes(), attribute.String("mode", "solve"))
	}
}

func TestLocker_Update(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()
	spec.Platforms = []string{"linux-64"}

	prior, err := domain.NewLock(domain.LockMetadata{}, planFor("linux-64").LockedDependencies("linux-64"))
	require.NoError(t, err)

	f.solver.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.UpdateRequest) (*domain.InstallPlan, error) {
			assert.Equal(t, []string{"numpy"}, req.Update)
			assert.Len(t, req.Locked, 6)
			plan := planFor("linux-64")
			plan.Fetch[2].Version = "1.26.4"
			return plan, nil
		})
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.ManagedRequest) (*domain.ManagedResult, error) {
			assert.Equal(t, []string{"numpy"}, req.Update)
			return requestsFor(req.Platform), nil
		})

	lock, err := f.locker.Lock(context.Background(), locker.Request{
		Spec:    spec,
		Prior:   prior,
		Update:  []string{"numpy"},
		Workers: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "1.26.4", byKey(lock)["conda:numpy@linux-64"].Version)
}

func TestLocker_SolvesWithoutPrior(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()
	spec.Platforms = []string{"linux-64"}

	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).Return(planFor("linux-64"), nil)
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(requestsFor("linux-64"), nil)

	_, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec, Update: []string{"numpy"}})
	require.NoError(t, err)
}

func TestLocker_CheckInputHash(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()

	hashes, err := spec.ContentHash()
	require.NoError(t, err)
	prior, err := domain.NewLock(domain.LockMetadata{
		ContentHash: map[string]string{"linux-64": hashes["linux-64"], "osx-arm64": "stale"},
	}, planFor("linux-64").LockedDependencies("linux-64"))
	require.NoError(t, err)

	f.log.EXPECT().Info("Spec hash already locked for linux-64")
	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.SolveRequest) (*domain.InstallPlan, error) {
			assert.Equal(t, "osx-arm64", req.Platform)
			return planFor(req.Platform), nil
		})
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(requestsFor("osx-arm64"), nil)

	lock, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec, Prior: prior, CheckInputHash: true, Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, prior.PlatformPackages("linux-64"), lock.PlatformPackages("linux-64"))
	assert.NotEmpty(t, lock.PlatformPackages("osx-arm64"))
}

func TestLocker_IsolatesPlatformFailures(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()

	var solved atomic.Int32
	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.SolveRequest) (*domain.InstallPlan, error) {
			if req.Platform == "osx-arm64" {
				return nil, &domain.SolveError{Platform: req.Platform, Message: "nothing provides numpy"}
			}
			solved.Add(1)
			return planFor(req.Platform), nil
		}).Times(2)
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(requestsFor("linux-64"), nil)

	_, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec, Workers: 2})
	require.ErrorIs(t, err, domain.ErrLockFailed)
	require.ErrorIs(t, err, domain.ErrSolveFailed)

	var solveErr *domain.SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, "osx-arm64", solveErr.Platform)
	assert.Equal(t, int32(1), solved.Load())
}

func TestLocker_ManagedFailure(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()
	spec.Platforms = []string{"linux-64"}

	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).Return(planFor("linux-64"), nil)
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil,
		&domain.ArtifactResolutionError{Requirement: "requests", Platform: "linux-64", Reason: "no match"})

	_, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec})
	require.ErrorIs(t, err, domain.ErrArtifactResolution)
}

func TestLocker_MergesSameNameRequirements(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()
	spec.Platforms = []string{"linux-64"}
	spec.Dependencies = append(spec.Dependencies,
		domain.NewVersionedDependency("requests", domain.ManagerPip, "<2.32").WithCategory(domain.CategoryDev, true))

	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).Return(planFor("linux-64"), nil)
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.ManagedRequest) (*domain.ManagedResult, error) {
			if assert.Len(t, req.Requirements, 1) {
				assert.Equal(t, ">=2.31,<2.32", req.Requirements[0].Version)
				assert.False(t, req.Requirements[0].Optional)
			}
			return requestsFor(req.Platform), nil
		})

	lock, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec})
	require.NoError(t, err)
	requests := byKey(lock)["pip:requests@linux-64"]
	assert.Equal(t, []string{domain.CategoryDev, domain.CategoryMain}, requests.Categories)
	assert.False(t, requests.Optional)
}

func TestLocker_ConflictingManagedRecords(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()
	spec.Platforms = []string{"linux-64"}
	spec.Dependencies = append(spec.Dependencies,
		domain.NewURLDependency("requests", domain.ManagerPip, "https://files.example/requests-2.30.0-py3-none-any.whl"))

	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).Return(planFor("linux-64"), nil)
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.ManagedRequest) (*domain.ManagedResult, error) {
			assert.Len(t, req.Requirements, 2)
			older := requestsFor(req.Platform).Packages[0]
			older.Version = "2.30.0"
			older.URL = "https://files.example/requests-2.30.0-py3-none-any.whl"
			res := requestsFor(req.Platform)
			res.Packages = append(res.Packages, older)
			return res, nil
		})

	_, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec})
	require.ErrorIs(t, err, domain.ErrLockFailed)
	require.ErrorIs(t, err, domain.ErrInternalConsistency)
	var conflict *domain.ConsistencyError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "requests", conflict.Key.Name)
}

func TestLocker_NoManagedRequirements(t *testing.T) {
	f := newFixture(t, nil)
	spec := testSpec()
	spec.Dependencies = spec.DependenciesFor(domain.ManagerConda)
	spec.VirtualPackages = nil
	spec.Platforms = []string{"osx-arm64"}

	f.solver.EXPECT().Solve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.SolveRequest) (*domain.InstallPlan, error) {
			assert.Equal(t, []string{"conda-forge"}, req.Channels)
			assert.Empty(t, req.VirtualPackages)
			return planFor(req.Platform), nil
		})

	lock, err := f.locker.Lock(context.Background(), locker.Request{Spec: spec})
	require.NoError(t, err)
	assert.Len(t, lock.Packages, 5)
}

func TestLocker_SolverUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mocks.NewMockSolverFactory(ctrl)
	factory.EXPECT().New(gomock.Any()).Return(nil, errors.New("conda not found"))

	l := locker.New(factory, mocks.NewMockManagedResolver(ctrl), mocks.NewMockVirtualPackages(ctrl),
		telemetry.NewNoOpTracer(), mocks.NewMockLogger(ctrl))
	_, err := l.Lock(context.Background(), locker.Request{Spec: testSpec()})
	require.Error(t, err)
}
