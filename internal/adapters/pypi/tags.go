package pypi

import (
	"fmt"
	"strconv"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// ErrInvalidWheel is returned for file names that do not follow the wheel naming convention.
var ErrInvalidWheel = zerr.New("invalid wheel filename")

type wheelInfo struct {
	Name     string
	Version  string
	Python   []string
	ABI      []string
	Platform []string
}

// parseWheelFilename splits {name}-{version}(-{build})?-{python}-{abi}-{platform}.whl.
// Each tag may be a dot-separated set.
func parseWheelFilename(name string) (wheelInfo, error) {
	base, ok := strings.CutSuffix(name, ".whl")
	if !ok {
		return wheelInfo{}, zerr.With(zerr.Wrap(ErrInvalidWheel, "cannot parse wheel"), "filename", name)
	}
	parts := strings.Split(base, "-")
	if len(parts) < 5 {
		return wheelInfo{}, zerr.With(zerr.Wrap(ErrInvalidWheel, "cannot parse wheel"), "filename", name)
	}
	n := len(parts)
	return wheelInfo{
		Name:     domain.CanonicalName(domain.ManagerPip, parts[0]),
		Version:  parts[1],
		Python:   strings.Split(parts[n-3], "."),
		ABI:      strings.Split(parts[n-2], "."),
		Platform: strings.Split(parts[n-1], "."),
	}, nil
}

// target describes the interpreter and platform a wheel must run on.
type target struct {
	major, minor int
	// platforms are compatible platform tags, most specific first.
	platforms []string
}

var (
	linuxArch = map[string]string{
		"linux-64":      "x86_64",
		"linux-32":      "i686",
		"linux-aarch64": "aarch64",
		"linux-ppc64le": "ppc64le",
		"linux-s390x":   "s390x",
	}
	osxArch = map[string]string{
		"osx-64":    "x86_64",
		"osx-arm64": "arm64",
	}
	winTag = map[string]string{
		"win-64":    "win_amd64",
		"win-32":    "win32",
		"win-arm64": "win_arm64",
	}
)

// newTarget derives the wheel target for a python version on a conda platform.
// __glibc and __osx virtual packages bound the manylinux and macOS tags.
func newTarget(pythonVersion, platform string, virtual []domain.VirtualPackage) (target, error) {
	major, minor, ok := majorMinor(pythonVersion)
	if !ok {
		return target{}, zerr.With(zerr.Wrap(domain.ErrArtifactResolution, "unusable python version"), "python", pythonVersion)
	}
	t := target{major: major, minor: minor}

	versions := make(map[string]string, len(virtual))
	for _, vp := range virtual {
		versions[vp.Name] = vp.Version
	}

	switch {
	case linuxArch[platform] != "":
		glibc := versions["__glibc"]
		if glibc == "" {
			glibc = "2.17"
		}
		t.platforms = manylinuxTags(linuxArch[platform], glibc)
	case osxArch[platform] != "":
		osx := versions["__osx"]
		if osx == "" {
			osx = "10.15"
			if platform == "osx-arm64" {
				osx = "11.0"
			}
		}
		t.platforms = macosTags(osxArch[platform], osx)
	case winTag[platform] != "":
		t.platforms = []string{winTag[platform]}
	}
	return t, nil
}

func majorMinor(version string) (int, int, bool) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	return major, minor, err1 == nil && err2 == nil
}

func manylinuxTags(arch, glibc string) []string {
	_, minor, ok := majorMinor(glibc)
	if !ok {
		minor = 17
	}
	var tags []string
	for m := minor; m >= 5; m-- {
		tags = append(tags, fmt.Sprintf("manylinux_2_%d_%s", m, arch))
		switch m {
		case 17:
			tags = append(tags, "manylinux2014_"+arch)
		case 12:
			tags = append(tags, "manylinux2010_"+arch)
		case 5:
			tags = append(tags, "manylinux1_"+arch)
		}
	}
	return tags
}

func macosTags(arch, osx string) []string {
	major, minor, ok := majorMinor(osx)
	if !ok {
		major, minor = 10, 15
	}
	archs := []string{arch, "universal2"}
	if arch == "x86_64" {
		archs = append(archs, "intel", "universal")
	}

	var tags []string
	for maj := major; maj >= 10; maj-- {
		if arch == "arm64" && maj < 11 {
			break
		}
		hi := 0
		if maj == 10 {
			hi = 15
			if major == 10 {
				hi = minor
			}
		}
		for mn := hi; mn >= 0; mn-- {
			for _, a := range archs {
				tags = append(tags, fmt.Sprintf("macosx_%d_%d_%s", maj, mn, a))
			}
		}
	}
	return tags
}

// score ranks a wheel for the target. Higher is better; false means incompatible.
func (t target) score(w wheelInfo) (int, bool) {
	best := 0
	for _, py := range w.Python {
		for _, abi := range w.ABI {
			if s := t.interpreterScore(py, abi); s > best {
				best = s
			}
		}
	}
	if best == 0 {
		return 0, false
	}

	platformScore := -1
	for _, tag := range w.Platform {
		if tag == "any" {
			platformScore = max(platformScore, 0)
			continue
		}
		for i, want := range t.platforms {
			if tag == want {
				platformScore = max(platformScore, len(t.platforms)-i)
			}
		}
	}
	if platformScore < 0 {
		return 0, false
	}
	return best*10000 + platformScore, true
}

// interpreterScore rates a python/abi tag pair: 3 for an exact CPython ABI,
// 2 for the stable ABI, 1 for pure python, 0 when incompatible.
func (t target) interpreterScore(py, abi string) int {
	exact := fmt.Sprintf("cp%d%d", t.major, t.minor)
	switch {
	case strings.HasPrefix(py, "cp"):
		major, minor, ok := tagVersion(strings.TrimPrefix(py, "cp"))
		if !ok || major != t.major {
			return 0
		}
		switch {
		case py == exact && (abi == exact || abi == exact+"m" || abi == exact+"d"):
			return 3
		case abi == "abi3" && minor <= t.minor:
			return 2
		case abi == "none" && minor == t.minor:
			return 1
		}
	case strings.HasPrefix(py, "py"):
		if abi != "none" {
			return 0
		}
		digits := strings.TrimPrefix(py, "py")
		if digits == strconv.Itoa(t.major) {
			return 1
		}
		if major, minor, ok := tagVersion(digits); ok && major == t.major && minor == t.minor {
			return 1
		}
	}
	return 0
}

// tagVersion splits "311" into 3 and 11. A single digit has no minor.
func tagVersion(digits string) (int, int, bool) {
	if len(digits) < 2 {
		n, err := strconv.Atoi(digits)
		return n, -1, err == nil
	}
	major, err1 := strconv.Atoi(digits[:1])
	minor, err2 := strconv.Atoi(digits[1:])
	return major, minor, err1 == nil && err2 == nil
}
