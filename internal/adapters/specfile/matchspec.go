package specfile

import (
	"regexp"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	matchSpecName = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9._-]*)\s*(.*)$`)
	bracketVer    = regexp.MustCompile(`^\[\s*version\s*=\s*['"]([^'"]+)['"]\s*\]$`)
)

// parseMatchSpec reads a conda match spec such as "numpy >=1.20", "python=3.11",
// "conda-forge::zlib" or "pkg[version='>=2']" into a native dependency.
// "=X" means X.* and a trailing "=build" is ignored.
func parseMatchSpec(spec string) (domain.Dependency, error) {
	text := strings.TrimSpace(spec)
	if _, after, ok := strings.Cut(text, "::"); ok {
		text = after
	}
	m := matchSpecName.FindStringSubmatch(text)
	if m == nil {
		return domain.Dependency{}, zerr.With(zerr.Wrap(domain.ErrInvalidRequirement, "invalid match spec"), "spec", spec)
	}
	name, rest := m[1], strings.TrimSpace(m[2])

	if bm := bracketVer.FindStringSubmatch(rest); bm != nil {
		return domain.NewVersionedDependency(name, domain.ManagerConda, bm[1]), nil
	}

	switch {
	case rest == "":
	case strings.HasPrefix(rest, "==") || strings.ContainsAny(rest[:1], "<>!~"):
		rest = strings.Join(strings.Fields(rest), "")
	case strings.HasPrefix(rest, "="):
		version, _, _ := strings.Cut(rest[1:], "=")
		rest = strings.TrimSpace(version)
		if !strings.HasSuffix(rest, "*") {
			rest += ".*"
		}
	default:
		version, _, _ := strings.Cut(rest, " ")
		rest = version
	}
	return domain.NewVersionedDependency(name, domain.ManagerConda, rest), nil
}
