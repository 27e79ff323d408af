// Package config builds process settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-shellwords"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Environment variables read by Load.
const (
	EnvSolver       = "LOCKFORGE_CONDA_EXE"
	EnvVariant      = "LOCKFORGE_SOLVER_VARIANT"
	EnvPkgsDirs     = "LOCKFORGE_PKGS_DIRS"
	EnvCondaFlags   = "LOCKFORGE_CONDA_FLAGS"
	EnvTimeout      = "LOCKFORGE_TIMEOUT"
	EnvWorkers      = "LOCKFORGE_WORKERS"
	EnvPyPIURL      = "LOCKFORGE_PYPI_URL"
	EnvLockFile     = "LOCKFORGE_LOCKFILE"
	EnvCredentials  = "LOCKFORGE_CREDENTIALS"
	EnvJSONLogs     = "LOCKFORGE_JSON_LOGS"
	EnvVerbose      = "LOCKFORGE_VERBOSE"
	envCondaExe     = "CONDA_EXE"
	dotenvFileName  = ".env"
	credentialsFile = "credentials.ini"
)

// ErrInvalidSetting is returned when an environment variable has an unusable value.
var ErrInvalidSetting = zerr.New("invalid setting")

// Loader reads settings from the process environment.
type Loader struct {
	// DotEnv is the optional file loaded before reading the environment.
	DotEnv string
	lookup func(string) (string, bool)
}

// NewLoader creates a Loader reading ".env" in the working directory and the process environment.
func NewLoader() *Loader {
	return &Loader{DotEnv: dotenvFileName, lookup: os.LookupEnv}
}

// Load returns settings with defaults applied. Variables already set in the
// environment take precedence over the .env file.
func (l *Loader) Load() (domain.Settings, error) {
	if l.DotEnv != "" {
		if err := godotenv.Load(l.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return domain.Settings{}, zerr.With(zerr.Wrap(err, "failed to load dotenv file"), "path", l.DotEnv)
		}
	}

	s := domain.Settings{
		Solver: domain.SolverConfig{
			Executable: domain.DefaultSolver,
			Timeout:    domain.DefaultSolveTimeout,
		},
		Workers:     runtime.NumCPU(),
		PyPIURL:     domain.DefaultPyPIURL,
		LockFile:    domain.DefaultLockFile,
		Credentials: defaultCredentialsPath(),
	}

	if v, ok := l.get(envCondaExe); ok {
		s.Solver.Executable = v
	}
	if v, ok := l.get(EnvSolver); ok {
		s.Solver.Executable = v
	}
	if v, ok := l.get(EnvVariant); ok {
		s.Solver.Variant = v
	}
	if v, ok := l.get(EnvPkgsDirs); ok {
		s.Solver.PkgsDirs = filepath.SplitList(v)
	}
	if v, ok := l.get(EnvCondaFlags); ok {
		flags, err := SplitFlags(v)
		if err != nil {
			return domain.Settings{}, zerr.With(err, "variable", EnvCondaFlags)
		}
		s.Solver.ExtraFlags = flags
	}
	if v, ok := l.get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return domain.Settings{}, invalid(EnvTimeout, v)
		}
		s.Solver.Timeout = d
	}
	if v, ok := l.get(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.Settings{}, invalid(EnvWorkers, v)
		}
		s.Workers = n
	}
	if v, ok := l.get(EnvPyPIURL); ok {
		s.PyPIURL = strings.TrimSuffix(v, "/")
	}
	if v, ok := l.get(EnvLockFile); ok {
		s.LockFile = v
	}
	if v, ok := l.get(EnvCredentials); ok {
		s.Credentials = v
	}
	if v, ok := l.get(EnvJSONLogs); ok {
		s.JSONLogs = parseBool(v)
	}
	if v, ok := l.get(EnvVerbose); ok {
		s.Verbose = parseBool(v)
	}
	return s, nil
}

func (l *Loader) get(key string) (string, bool) {
	lookup := l.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func invalid(key, value string) error {
	err := zerr.Wrap(ErrInvalidSetting, "cannot parse environment variable")
	err = zerr.With(err, "variable", key)
	return zerr.With(err, "value", value)
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lockforge", credentialsFile)
}

// SplitFlags splits a command line into words with POSIX shell quoting.
// Variables and backticks are left unexpanded.
func SplitFlags(s string) ([]string, error) {
	words, err := shellwords.Parse(s)
	if err != nil {
		return nil, zerr.Wrap(ErrInvalidSetting, "cannot split flags: "+err.Error())
	}
	return words, nil
}
