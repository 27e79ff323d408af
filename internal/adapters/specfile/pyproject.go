package specfile

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		RequiresPython       string              `toml:"requires-python"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Optional     bool           `toml:"optional"`
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
		CondaLock struct {
			Channels     []string          `toml:"channels"`
			Platforms    []string          `toml:"platforms"`
			Dependencies map[string]string `toml:"dependencies"`
		} `toml:"conda-lock"`
	} `toml:"tool"`
}

// ParsePyProject reads PEP 621 and poetry dependencies from a pyproject.toml file.
// The python constraint and [tool.conda-lock.dependencies] become native dependencies;
// everything else is a managed requirement.
func ParsePyProject(path string, platforms []string) (*domain.LockSpecification, error) {
	//nolint:gosec // G304: path is a user-supplied input file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read pyproject"), "path", path)
	}
	spec, err := parsePyProject(data, platforms)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	spec.Sources = []string{path}
	return spec, nil
}

func parsePyProject(data []byte, platforms []string) (*domain.LockSpecification, error) {
	var doc pyprojectFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(ErrInvalidSpecFile, err.Error())
	}

	spec := &domain.LockSpecification{
		Channels:  doc.Tool.CondaLock.Channels,
		Platforms: doc.Tool.CondaLock.Platforms,
	}
	if len(spec.Platforms) == 0 {
		spec.Platforms = platforms
	}

	if rp := strings.TrimSpace(doc.Project.RequiresPython); rp != "" {
		spec.Dependencies = append(spec.Dependencies, domain.NewVersionedDependency("python", domain.ManagerConda, rp))
	}
	for _, line := range doc.Project.Dependencies {
		req, err := domain.ParseRequirement(line)
		if err != nil {
			return nil, err
		}
		spec.Dependencies = append(spec.Dependencies, req.Dependency(domain.CategoryMain, false))
	}
	for _, extra := range sortedKeys(doc.Project.OptionalDependencies) {
		for _, line := range doc.Project.OptionalDependencies[extra] {
			req, err := domain.ParseRequirement(line)
			if err != nil {
				return nil, err
			}
			spec.Dependencies = append(spec.Dependencies, req.Dependency(extra, true))
		}
	}

	poetry := doc.Tool.Poetry
	deps, err := poetryDependencies(poetry.Dependencies, domain.CategoryMain, false)
	if err != nil {
		return nil, err
	}
	spec.Dependencies = append(spec.Dependencies, deps...)
	if deps, err = poetryDependencies(poetry.DevDependencies, domain.CategoryDev, true); err != nil {
		return nil, err
	}
	spec.Dependencies = append(spec.Dependencies, deps...)
	for _, group := range sortedKeys(poetry.Group) {
		g := poetry.Group[group]
		if deps, err = poetryDependencies(g.Dependencies, group, group != domain.CategoryMain); err != nil {
			return nil, err
		}
		spec.Dependencies = append(spec.Dependencies, deps...)
	}

	for _, name := range sortedKeys(doc.Tool.CondaLock.Dependencies) {
		spec.Dependencies = append(spec.Dependencies,
			domain.NewVersionedDependency(name, domain.ManagerConda, doc.Tool.CondaLock.Dependencies[name]))
	}
	return spec, nil
}

// poetryDependencies converts a poetry dependency table. The python entry becomes a
// native dependency; optional entries are optional in their category.
func poetryDependencies(table map[string]any, category string, optional bool) ([]domain.Dependency, error) {
	var out []domain.Dependency
	for _, name := range sortedKeys(table) {
		value := table[name]
		if name == "python" {
			constraint, ok := value.(string)
			if !ok {
				return nil, zerr.With(zerr.Wrap(ErrInvalidSpecFile, "python constraint must be a string"), "package", name)
			}
			version, err := poetryConstraint(constraint)
			if err != nil {
				return nil, err
			}
			out = append(out, domain.NewVersionedDependency("python", domain.ManagerConda, version))
			continue
		}

		dep, err := poetryDependency(name, value)
		if err != nil {
			return nil, zerr.With(err, "package", name)
		}
		out = append(out, dep.WithCategory(category, optional || dep.Optional))
	}
	return out, nil
}

func poetryDependency(name string, value any) (domain.Dependency, error) {
	switch v := value.(type) {
	case string:
		version, err := poetryConstraint(v)
		if err != nil {
			return domain.Dependency{}, err
		}
		return domain.NewVersionedDependency(name, domain.ManagerPip, version), nil
	case map[string]any:
		var dep domain.Dependency
		switch {
		case v["git"] != nil:
			return domain.Dependency{}, zerr.Wrap(domain.ErrInvalidRequirement, "git dependencies are not supported")
		case v["path"] != nil:
			path := fmt.Sprint(v["path"])
			if !domain.IsLocalPath(path) {
				path = "./" + path
			}
			dep = domain.NewURLDependency(name, domain.ManagerPip, path)
			dep.Editable, _ = v["develop"].(bool)
		case v["url"] != nil:
			dep = domain.NewURLDependency(name, domain.ManagerPip, fmt.Sprint(v["url"]))
		default:
			constraint, _ := v["version"].(string)
			version, err := poetryConstraint(constraint)
			if err != nil {
				return domain.Dependency{}, err
			}
			dep = domain.NewVersionedDependency(name, domain.ManagerPip, version)
		}
		dep.Optional, _ = v["optional"].(bool)
		if extras, ok := v["extras"].([]any); ok {
			for _, e := range extras {
				dep.Extras = append(dep.Extras, fmt.Sprint(e))
			}
		}
		return dep, nil
	default:
		return domain.Dependency{}, zerr.Wrap(domain.ErrInvalidRequirement, fmt.Sprintf("unsupported dependency value %T", value))
	}
}

// poetryConstraint rewrites poetry's caret and tilde operators as PEP 440 ranges:
// "^1.2.3" is ">=1.2.3,<2.0.0", "~1.2" is ">=1.2,<1.3", "*" matches anything and a
// bare version is an exact pin.
func poetryConstraint(constraint string) (string, error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || constraint == "*" {
		return "", nil
	}
	clauses := strings.Split(constraint, ",")
	out := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "^"):
			r, err := caretRange(strings.TrimSpace(clause[1:]))
			if err != nil {
				return "", err
			}
			out = append(out, r)
		case strings.HasPrefix(clause, "~") && !strings.HasPrefix(clause, "~="):
			r, err := tildeRange(strings.TrimSpace(clause[1:]))
			if err != nil {
				return "", err
			}
			out = append(out, r)
		case clause != "" && (clause[0] >= '0' && clause[0] <= '9'):
			out = append(out, "=="+clause)
		default:
			out = append(out, strings.ReplaceAll(clause, " ", ""))
		}
	}
	return strings.Join(out, ","), nil
}

func releaseNumbers(version string) ([]int, error) {
	parts := strings.Split(version, ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidRequirement, "invalid version in constraint"), "version", version)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

func caretRange(version string) (string, error) {
	nums, err := releaseNumbers(version)
	if err != nil {
		return "", err
	}
	// The upper bound bumps the first non-zero segment, or the last given one.
	idx := len(nums) - 1
	for i, n := range nums {
		if n != 0 {
			idx = i
			break
		}
	}
	return ">=" + version + ",<" + bump(nums, idx), nil
}

func tildeRange(version string) (string, error) {
	nums, err := releaseNumbers(version)
	if err != nil {
		return "", err
	}
	idx := 0
	if len(nums) > 1 {
		idx = 1
	}
	return ">=" + version + ",<" + bump(nums, idx), nil
}

// bump increments nums[idx] and zeroes the following segments, keeping the segment count.
func bump(nums []int, idx int) string {
	out := slices.Clone(nums)
	out[idx]++
	for i := idx + 1; i < len(out); i++ {
		out[i] = 0
	}
	parts := make([]string, 0, len(out))
	for _, n := range out {
		parts = append(parts, strconv.Itoa(n))
	}
	if len(parts) == 1 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, ".")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
