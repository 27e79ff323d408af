package domain

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// Requirement is a parsed managed-language requirement line.
type Requirement struct {
	Name       string
	Extras     []string
	Constraint string
	// URL is the direct reference including any fragment.
	URL string
	// Hash is "<algo>:<digest>" taken from a "#<algo>=<digest>" URL fragment.
	Hash string
	// Marker is the environment marker after ';'. It is recorded but not evaluated.
	Marker   string
	Editable bool
	Local    bool
}

var (
	namePattern       = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)
	extrasPattern     = regexp.MustCompile(`^\[([^\]]*)\]`)
	constraintPattern = regexp.MustCompile(`^\s*((?:[<>=!~]=?=?|===)\s*\S.*)$`)
	urlPattern        = regexp.MustCompile(`^\s*@\s*(\S+)\s*$`)
	hashFragment      = regexp.MustCompile(`(?:^|&)(md5|sha1|sha224|sha256|sha384|sha512)=([0-9A-Za-z]+)`)
	eggFragment       = regexp.MustCompile(`(?:^|&)egg=([A-Za-z0-9._-]+)`)
)

// ParseRequirement parses "name[extras] constraint", "name[extras] @ url#algo=digest",
// "-e <ref>" and local path references.
func ParseRequirement(line string) (Requirement, error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return Requirement{}, zerr.Wrap(ErrInvalidRequirement, "empty requirement")
	}

	if rest, ok := strings.CutPrefix(text, "-e"); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
		req := parseReference(strings.TrimSpace(rest))
		req.Editable = true
		return req, nil
	}
	if IsLocalPath(text) {
		return parseReference(text), nil
	}

	text, marker, _ := strings.Cut(text, ";")
	req := Requirement{Marker: strings.TrimSpace(marker)}
	text = strings.TrimSpace(text)

	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, "requirement has no name"), "requirement", line)
	}
	req.Name = m[1]
	rest := text[len(m[0]):]

	extras, rest, err := parseExtras(rest)
	if err != nil {
		return Requirement{}, zerr.With(err, "requirement", line)
	}
	req.Extras = extras

	switch {
	case strings.TrimSpace(rest) == "":
	case urlPattern.MatchString(rest):
		req.URL = urlPattern.FindStringSubmatch(rest)[1]
		req.Hash = fragmentHash(req.URL)
		req.Local = IsLocalPath(req.URL)
	case constraintPattern.MatchString(rest):
		req.Constraint = strings.TrimSpace(constraintPattern.FindStringSubmatch(rest)[1])
	default:
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, "unrecognized version clause"), "requirement", line)
	}
	return req, nil
}

func parseExtras(rest string) ([]string, string, error) {
	m := extrasPattern.FindStringSubmatch(rest)
	if m == nil {
		if strings.HasPrefix(rest, "[") {
			return nil, "", zerr.Wrap(ErrInvalidRequirement, "unterminated extras")
		}
		return nil, rest, nil
	}
	var extras []string
	for _, extra := range strings.Split(m[1], ",") {
		if extra = strings.TrimSpace(extra); extra != "" {
			extras = append(extras, extra)
		}
	}
	return extras, rest[len(m[0]):], nil
}

func parseReference(ref string) Requirement {
	req := Requirement{URL: ref, Local: IsLocalPath(ref), Hash: fragmentHash(ref)}
	base, fragment, _ := strings.Cut(ref, "#")
	if m := eggFragment.FindStringSubmatch(fragment); m != nil {
		req.Name = m[1]
		return req
	}
	if u, err := url.Parse(base); err == nil && u.Path != "" {
		base = u.Path
	}
	req.Name = path.Base(strings.TrimSuffix(base, "/"))
	return req
}

func fragmentHash(ref string) string {
	_, fragment, ok := strings.Cut(ref, "#")
	if !ok {
		return ""
	}
	m := hashFragment.FindStringSubmatch(fragment)
	if m == nil {
		return ""
	}
	return m[1] + ":" + m[2]
}

// Dependency converts the requirement into a pip dependency in the given category.
func (r Requirement) Dependency(category string, optional bool) Dependency {
	dep := Dependency{
		Name:     r.Name,
		Manager:  ManagerPip,
		Optional: optional,
		Category: category,
		Extras:   r.Extras,
		Version:  r.Constraint,
		URL:      r.URL,
		Editable: r.Editable,
	}
	if dep.Category == "" {
		dep.Category = CategoryMain
	}
	if r.Hash != "" {
		dep.Hashes = []string{r.Hash}
	}
	return dep
}
