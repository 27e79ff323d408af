// Package pypi resolves managed requirements against a PyPI-compatible JSON registry.
package pypi

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Version is a parsed PEP 440 version.
type Version = pep440.Version

var clauseOperators = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">", "="}

// ParseVersion parses a PEP 440 version such as "1.0rc1", "5.4.1.1" or "1.0.post2+local".
func ParseVersion(raw string) (Version, error) {
	v, err := pep440.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, zerr.With(zerr.Wrap(domain.ErrInvalidRequirement, "invalid version"), "version", raw)
	}
	return v, nil
}

// Specifier is a PEP 440 version specifier set. Every clause must match.
type Specifier struct {
	raw string
	set *pep440.Specifiers
	pre bool
}

// ParseSpecifier parses a comma-separated specifier set such as ">=1.20,!=1.21.*,<2".
// An empty string matches every release. A single "=" and "===" are read as "==".
func ParseSpecifier(raw string) (*Specifier, error) {
	spec := &Specifier{raw: strings.TrimSpace(raw)}
	if spec.raw == "" || spec.raw == "*" {
		return spec, nil
	}

	var clauses []string
	for _, clause := range strings.Split(spec.raw, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		normalized, pre, err := normalizeClause(clause)
		if err != nil {
			return nil, zerr.With(err, "specifier", raw)
		}
		clauses = append(clauses, normalized)
		spec.pre = spec.pre || pre
	}
	if len(clauses) == 0 {
		return spec, nil
	}

	set, err := pep440.NewSpecifiers(strings.Join(clauses, ","), pep440.WithPreRelease(true))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidRequirement, err.Error()), "specifier", raw)
	}
	spec.set = &set
	return spec, nil
}

// String returns the specifier as written.
func (s *Specifier) String() string {
	return s.raw
}

// AllowsPrerelease reports whether a clause names a pre-release explicitly.
func (s *Specifier) AllowsPrerelease() bool {
	return s.pre
}

// Check reports whether v satisfies every clause. Pre-releases are not filtered here.
func (s *Specifier) Check(v Version) bool {
	if s.set == nil {
		return true
	}
	return s.set.Check(v)
}

// normalizeClause validates one clause and rewrites its operator in canonical form.
// It reports whether the clause pins a pre-release.
func normalizeClause(clause string) (string, bool, error) {
	op := ""
	for _, candidate := range clauseOperators {
		if strings.HasPrefix(clause, candidate) {
			op = candidate
			break
		}
	}
	ver := strings.TrimSpace(strings.TrimPrefix(clause, op))
	if ver == "" || strings.ContainsAny(ver, " \t") {
		return "", false, zerr.Wrap(domain.ErrInvalidRequirement, "invalid specifier clause "+clause)
	}
	if op == "" || op == "=" || op == "===" {
		op = "=="
	}

	prefix, wildcard := strings.CutSuffix(ver, ".*")
	if wildcard && op != "==" && op != "!=" {
		return "", false, zerr.Wrap(domain.ErrInvalidRequirement, "wildcard not allowed with "+op)
	}
	v, err := ParseVersion(prefix)
	if err != nil {
		return "", false, err
	}
	if op == "~=" && len(strings.Split(releaseOf(prefix), ".")) < 2 {
		return "", false, zerr.Wrap(domain.ErrInvalidRequirement, "~= needs at least two release segments")
	}
	return op + ver, !wildcard && v.IsPreRelease(), nil
}

// releaseOf returns the leading dotted numeric release of a version string.
func releaseOf(v string) string {
	v = strings.TrimPrefix(strings.ToLower(v), "v")
	if _, rest, ok := strings.Cut(v, "!"); ok {
		v = rest
	}
	end := 0
	for end < len(v) && (v[end] == '.' || v[end] >= '0' && v[end] <= '9') {
		end++
	}
	return strings.TrimSuffix(v[:end], ".")
}
