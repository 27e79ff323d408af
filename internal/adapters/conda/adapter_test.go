package conda_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockforge/internal/adapters/conda"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/lockforge/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// fakeRunner answers solver invocations by verb and records every call.
type fakeRunner struct {
	calls     []conda.Invocation
	responses map[string]func(inv conda.Invocation) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, inv conda.Invocation) ([]byte, error) {
	f.calls = append(f.calls, inv)
	respond, ok := f.responses[inv.Args[0]]
	if !ok {
		return nil, &conda.ExitError{Code: 2, Stderr: "unexpected verb " + inv.Args[0]}
	}
	return respond(inv)
}

func (f *fakeRunner) verbs() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Args[0])
	}
	return out
}

func static(out string) func(conda.Invocation) ([]byte, error) {
	return func(conda.Invocation) ([]byte, error) { return []byte(out), nil }
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return log
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

const zlibURL = "https://conda.anaconda.org/conda-forge/linux-64/zlib-1.2.13-hd590300_5.conda"

func zlibFetch() domain.FetchAction {
	return domain.FetchAction{
		Channel:    "https://conda.anaconda.org/conda-forge/linux-64",
		Constrains: []string{},
		Depends:    []string{"libgcc-ng >=12", "libzlib 1.2.13 hd590300_5"},
		Fn:         "zlib-1.2.13-hd590300_5.conda",
		MD5:        "68c34ec6149623be41a1933ab996a209",
		Name:       "zlib",
		Subdir:     "linux-64",
		Timestamp:  1686575452206,
		URL:        zlibURL,
		Version:    "1.2.13",
	}
}

func pythonFetch() domain.FetchAction {
	return domain.FetchAction{
		Channel:    "https://conda.anaconda.org/conda-forge/linux-64",
		Constrains: []string{"python_abi 3.11.* *_cp311"},
		Depends:    []string{"zlib >=1.2.13,<1.3.0a0"},
		Fn:         "python-3.11.4-hab00c5b_0_cpython.conda",
		MD5:        "1c628861a2a126b9fc9363ca1b7d014e",
		Name:       "python",
		Subdir:     "linux-64",
		URL:        "https://conda.anaconda.org/conda-forge/linux-64/python-3.11.4-hab00c5b_0_cpython.conda",
		Version:    "3.11.4",
	}
}

func dryRun(link []domain.LinkAction, fetch []domain.FetchAction) map[string]any {
	return map[string]any{"actions": map[string]any{"LINK": link, "FETCH": fetch}, "success": true}
}

func solveRequest() domain.SolveRequest {
	return domain.SolveRequest{
		Platform: "linux-64",
		Channels: []string{"conda-forge"},
		Specs: []domain.Dependency{
			domain.NewVersionedDependency("python", domain.ManagerConda, "3.11.*"),
			domain.NewVersionedDependency("zlib", domain.ManagerConda, ""),
		},
		VirtualPackages: []domain.VirtualPackage{
			{Name: "__glibc", Version: "2.17", Build: "0"},
			{Name: "__unix", Version: "0", Build: "0"},
		},
	}
}

func writeCacheRecord(t *testing.T, dir, dist string, rec domain.FetchAction) {
	t.Helper()
	info := filepath.Join(dir, dist, "info")
	require.NoError(t, os.MkdirAll(info, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(info, "repodata_record.json"), []byte(mustJSON(t, rec)), 0o600))
}

func TestSolver_Solve_ReconcilesFromCache(t *testing.T) {
	cache := t.TempDir()
	writeCacheRecord(t, cache, "zlib-1.2.13-hd590300_5", zlibFetch())

	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": static(mustJSON(t, dryRun(
			[]domain.LinkAction{{Name: "python", DistName: "python-3.11.4-hab00c5b_0_cpython"}, {Name: "zlib", DistName: "zlib-1.2.13-hd590300_5"}},
			[]domain.FetchAction{pythonFetch()},
		))),
		"info": static(mustJSON(t, map[string]any{"pkgs_dirs": []string{cache}})),
	}}
	solver := conda.NewSolver(conda.Conda, runner, quietLogger(t), domain.SolverConfig{ExtraFlags: []string{"--no-default-packages"}})

	plan, err := solver.Solve(context.Background(), solveRequest())
	require.NoError(t, err)

	if diff := cmp.Diff([]domain.FetchAction{pythonFetch(), zlibFetch()}, plan.Fetch); diff != "" {
		t.Errorf("fetch mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"create", "info"}, runner.verbs())

	create := runner.calls[0]
	assert.Equal(t, "--prefix", create.Args[1])
	assert.Equal(t, []string{
		"--dry-run", "--json", "--no-default-packages",
		"--override-channels", "--channel", "conda-forge",
		"python[version='3.11.*']", "zlib",
	}, create.Args[3:])
	assert.Equal(t, "linux-64", create.Env["CONDA_SUBDIR"])
	assert.Equal(t, "0", create.Env["CONDA_UNSATISFIABLE_HINTS_CHECK_DEPTH"])
	assert.Equal(t, "False", create.Env["CONDA_ADD_PIP_AS_PYTHON_DEPENDENCY"])
	assert.Equal(t, "2.17", create.Env["CONDA_OVERRIDE_GLIBC"])
	assert.Contains(t, create.Env, "CONDA_OVERRIDE_CUDA")
}

func TestSolver_Solve_ConfiguredCacheFirst(t *testing.T) {
	configured := t.TempDir()
	writeCacheRecord(t, configured, "zlib-1.2.13-hd590300_5", zlibFetch())

	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": static(mustJSON(t, dryRun([]domain.LinkAction{{Name: "zlib", DistName: "zlib-1.2.13-hd590300_5"}}, nil))),
		"info":   static(`{"pkgs_dirs": ["/nonexistent/pkgs"]}`),
	}}
	solver := conda.NewSolver(conda.Mamba, runner, quietLogger(t), domain.SolverConfig{PkgsDirs: []string{configured}})

	plan, err := solver.Solve(context.Background(), solveRequest())
	require.NoError(t, err)
	require.Len(t, plan.Fetch, 1)
	assert.Equal(t, zlibURL, plan.Fetch[0].URL)
	assert.Equal(t, configured, runner.calls[0].Env["CONDA_PKGS_DIRS"])
}

func TestSolver_Solve_MicromambaLinkRecord(t *testing.T) {
	z := zlibFetch()
	z.Constrains = nil
	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": static(mustJSON(t, dryRun([]domain.LinkAction{{
			Name:       z.Name,
			Version:    z.Version,
			DistName:   "zlib-1.2.13-hd590300_5",
			Channel:    z.Channel,
			Constrains: z.Constrains,
			Depends:    z.Depends,
			Fn:         z.Fn,
			MD5:        z.MD5,
			Subdir:     z.Subdir,
			Timestamp:  z.Timestamp,
			URL:        z.URL,
		}}, nil))),
	}}
	solver := conda.NewSolver(conda.Micromamba, runner, quietLogger(t), domain.SolverConfig{})

	plan, err := solver.Solve(context.Background(), solveRequest())
	require.NoError(t, err)
	if diff := cmp.Diff([]domain.FetchAction{z}, plan.Fetch); diff != "" {
		t.Errorf("fetch mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"create"}, runner.verbs())
}

func TestSolver_Solve_MissingCacheRecord(t *testing.T) {
	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": static(mustJSON(t, dryRun([]domain.LinkAction{{Name: "zlib", DistName: "zlib-1.2.13-hd590300_5"}}, nil))),
		"info":   static(`{"pkgs_dirs": []}`),
	}}
	solver := conda.NewSolver(conda.Conda, runner, quietLogger(t), domain.SolverConfig{PkgsDirs: []string{t.TempDir()}})

	_, err := solver.Solve(context.Background(), solveRequest())
	require.ErrorIs(t, err, domain.ErrMissingCacheRecord)
}

func TestSolver_Solve_NothingToDo(t *testing.T) {
	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": static(`{"message": "All requested packages already installed.", "success": true}`),
	}}
	solver := conda.NewSolver(conda.Conda, runner, quietLogger(t), domain.SolverConfig{})

	plan, err := solver.Solve(context.Background(), solveRequest())
	require.NoError(t, err)
	assert.Empty(t, plan.Link)
	assert.Empty(t, plan.Fetch)
}

func TestSolver_Solve_Failure(t *testing.T) {
	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": func(conda.Invocation) ([]byte, error) {
			stdout := []byte(`{"message": "nothing provides __glibc >=2.28", "error": "UnsatisfiableError"}`)
			return stdout, &conda.ExitError{Code: 1, Stdout: stdout}
		},
	}}
	solver := conda.NewSolver(conda.Conda, runner, quietLogger(t), domain.SolverConfig{})

	_, err := solver.Solve(context.Background(), solveRequest())
	require.ErrorIs(t, err, domain.ErrSolveFailed)

	var solveErr *domain.SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, "linux-64", solveErr.Platform)
	assert.Equal(t, "nothing provides __glibc >=2.28", solveErr.Message)
}

func TestSolver_Solve_MalformedOutput(t *testing.T) {
	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": static("Collecting package metadata: done"),
	}}
	solver := conda.NewSolver(conda.Conda, runner, quietLogger(t), domain.SolverConfig{})

	_, err := solver.Solve(context.Background(), solveRequest())
	require.ErrorIs(t, err, domain.ErrMalformedPlan)
}

func TestSolver_Solve_IncompletePlan(t *testing.T) {
	broken := pythonFetch()
	broken.URL = ""
	runner := &fakeRunner{responses: map[string]func(conda.Invocation) ([]byte, error){
		"create": static(mustJSON(t, dryRun([]domain.LinkAction{{Name: "python"}}, []domain.FetchAction{broken}))),
	}}
	solver := conda.NewSolver(conda.Conda, runner, quietLogger(t), domain.SolverConfig{})

	_, err := solver.Solve(context.Background(), solveRequest())
	require.ErrorIs(t, err, domain.ErrIncompletePlan)
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   string
	}{
		{"message", `{"message": "m", "error": "e"}`, "m"},
		{"error", `{"error": "e"}`, "e"},
		{"solver problems", `{"solver_problems": ["a", "b"]}`, "a\nb"},
		{"whole json", `{"caused_by": "x"}`, `{"caused_by": "x"}`},
		{"not json", "  boom\n", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conda.FailureMessage([]byte(tt.stdout)))
		})
	}
}

func TestChannelArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"--override-channels", "--channel", "conda-forge", "--channel", "defaults", "--channel", "msys2"},
		conda.ChannelArgs([]string{"conda-forge", "defaults"}, "win-64"))
	assert.Equal(t,
		[]string{"--override-channels", "--channel", "defaults"},
		conda.ChannelArgs([]string{"defaults"}, "linux-64"))
}

func TestMatchSpec(t *testing.T) {
	assert.Equal(t, "numpy[version='>=1.20,<2']", conda.MatchSpec(domain.NewVersionedDependency("numpy", domain.ManagerConda, ">=1.20,<2")))
	assert.Equal(t, "pip", conda.MatchSpec(domain.NewVersionedDependency("pip", domain.ManagerConda, "")))
	assert.Equal(t, zlibURL, conda.MatchSpec(domain.NewURLDependency("zlib", domain.ManagerConda, zlibURL)))
}

func TestVirtualOverrides(t *testing.T) {
	assert.Nil(t, conda.VirtualOverrides(nil))
	assert.Equal(t, map[string]string{
		"CONDA_OVERRIDE_CUDA":     "11.4",
		"CONDA_OVERRIDE_OSX":      "10.15",
		"CONDA_OVERRIDE_ARCHSPEC": "x86_64",
	}, conda.VirtualOverrides([]domain.VirtualPackage{
		{Name: "__archspec", Version: "1", Build: "x86_64"},
		{Name: "__cuda", Version: "11.4", Build: "0"},
		{Name: "__osx", Version: "10.15", Build: "0"},
		{Name: "__unix", Version: "0", Build: "0"},
	}))
}

func TestDetectVariant(t *testing.T) {
	tests := []struct {
		exe    string
		forced string
		want   string
	}{
		{"/opt/conda/bin/conda", "", "conda"},
		{"/opt/conda/bin/mamba", "", "mamba"},
		{"/usr/local/bin/micromamba", "", "micromamba"},
		{"mamba-1.5", "", "mamba"},
		{"/opt/conda/bin/conda", "micromamba", "micromamba"},
	}
	for _, tt := range tests {
		t.Run(tt.exe+"/"+tt.forced, func(t *testing.T) {
			v, err := conda.DetectVariant(tt.exe, tt.forced)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Name)
		})
	}

	_, err := conda.DetectVariant("conda", "pixi")
	require.ErrorIs(t, err, conda.ErrUnknownVariant)
}
