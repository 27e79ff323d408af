package pypi

import "go.trai.ch/lockforge/internal/core/domain"

// WheelInfo mirrors the parsed parts of a wheel filename.
type WheelInfo = wheelInfo

// ParseWheelFilename exposes parseWheelFilename for testing.
func ParseWheelFilename(name string) (WheelInfo, error) { return parseWheelFilename(name) }

// WheelScore scores a wheel filename for a python version and conda platform.
func WheelScore(filename, python, platform string, virtual []domain.VirtualPackage) (int, bool, error) {
	tgt, err := newTarget(python, platform, virtual)
	if err != nil {
		return 0, false, err
	}
	w, err := parseWheelFilename(filename)
	if err != nil {
		return 0, false, err
	}
	score, ok := tgt.score(w)
	return score, ok, nil
}

// PlatformTags exposes the compatible platform tags of a target.
func PlatformTags(python, platform string, virtual []domain.VirtualPackage) ([]string, error) {
	tgt, err := newTarget(python, platform, virtual)
	return tgt.platforms, err
}

// RequiresDist exposes requiresDist for testing.
func RequiresDist(entries []string) map[string]string { return requiresDist(entries) }

// SelectRelease picks the release of project locked for constraint on a python and platform.
func SelectRelease(project *Project, constraint, python, platform string) (string, bool, error) {
	spec, err := ParseSpecifier(constraint)
	if err != nil {
		return "", false, err
	}
	tgt, err := newTarget(python, platform, nil)
	if err != nil {
		return "", false, err
	}
	version, _, ok := selectRelease(project, spec, tgt)
	return version, ok, nil
}
