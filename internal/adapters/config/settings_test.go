package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockforge/internal/adapters/config"
	"go.trai.ch/lockforge/internal/core/domain"
)

func TestLoader_Defaults(t *testing.T) {
	s, err := config.NewLoaderFrom(nil, "").Load()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSolver, s.Solver.Executable)
	assert.Equal(t, domain.DefaultSolveTimeout, s.Solver.Timeout)
	assert.Equal(t, runtime.NumCPU(), s.Workers)
	assert.Equal(t, domain.DefaultPyPIURL, s.PyPIURL)
	assert.Equal(t, domain.DefaultLockFile, s.LockFile)
	assert.False(t, s.JSONLogs)
}

func TestLoader_Environment(t *testing.T) {
	env := map[string]string{
		"CONDA_EXE":           "/opt/conda/bin/conda",
		config.EnvSolver:      "/usr/local/bin/micromamba",
		config.EnvPkgsDirs:    "/cache/a" + string(filepath.ListSeparator) + "/cache/b",
		config.EnvCondaFlags:  `--strict-channel-priority --repodata-fn "current repodata.json"`,
		config.EnvTimeout:     "90s",
		config.EnvWorkers:     "3",
		config.EnvPyPIURL:     "https://mirror.example/pypi/",
		config.EnvJSONLogs:    "true",
		config.EnvVerbose:     "1",
		config.EnvCredentials: "/etc/lockforge/creds.ini",
		config.EnvVariant:     "micromamba",
		config.EnvLockFile:    "team.lock.yml",
	}

	s, err := config.NewLoaderFrom(env, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/micromamba", s.Solver.Executable)
	assert.Equal(t, "micromamba", s.Solver.Variant)
	assert.Equal(t, []string{"/cache/a", "/cache/b"}, s.Solver.PkgsDirs)
	assert.Equal(t, []string{"--strict-channel-priority", "--repodata-fn", "current repodata.json"}, s.Solver.ExtraFlags)
	assert.Equal(t, 90*time.Second, s.Solver.Timeout)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, "https://mirror.example/pypi", s.PyPIURL)
	assert.True(t, s.JSONLogs)
	assert.True(t, s.Verbose)
	assert.Equal(t, "/etc/lockforge/creds.ini", s.Credentials)
	assert.Equal(t, "team.lock.yml", s.LockFile)
}

func TestLoader_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad timeout", map[string]string{config.EnvTimeout: "soon"}},
		{"negative timeout", map[string]string{config.EnvTimeout: "-1s"}},
		{"bad workers", map[string]string{config.EnvWorkers: "zero"}},
		{"zero workers", map[string]string{config.EnvWorkers: "0"}},
		{"unterminated flags", map[string]string{config.EnvCondaFlags: `--channel "conda-forge`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.NewLoaderFrom(tt.env, "").Load()
			require.ErrorIs(t, err, config.ErrInvalidSetting)
		})
	}
}

func TestLoader_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOCKFORGE_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LOCKFORGE_TEST_DOTENV") })

	_, err := config.NewLoaderFrom(nil, path).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("LOCKFORGE_TEST_DOTENV"))
}

func TestLoader_MissingDotEnv(t *testing.T) {
	_, err := config.NewLoaderFrom(nil, filepath.Join(t.TempDir(), "absent.env")).Load()
	require.NoError(t, err)
}

func TestSplitFlags(t *testing.T) {
	got, err := config.SplitFlags(`  --a  'b c' "d"e  `)
	require.NoError(t, err)
	assert.Equal(t, []string{"--a", "b c", "de"}, got)

	got, err = config.SplitFlags(`--strict-channel-priority --repodata-fn="current repodata.json"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"--strict-channel-priority", "--repodata-fn=current repodata.json"}, got)

	got, err = config.SplitFlags(`--env $HOME`)
	require.NoError(t, err)
	assert.Equal(t, []string{"--env", "$HOME"}, got)

	_, err = config.SplitFlags(`--a 'b`)
	require.ErrorIs(t, err, config.ErrInvalidSetting)
}
