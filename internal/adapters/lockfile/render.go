package lockfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Renderer writes per-platform explicit lock files.
type Renderer struct {
	dir string
}

// NewRenderer creates a Renderer writing into dir. An empty dir means the working directory.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render writes one explicit file per platform and returns the paths in platform order.
func (r *Renderer) Render(lock *domain.Lock, platforms []string, tmpl string, creds domain.Credentials) ([]string, error) {
	if tmpl == "" {
		tmpl = domain.DefaultFilenameTemplate
	}
	if len(platforms) == 0 {
		platforms = lock.Metadata.Platforms
	}
	paths := make([]string, 0, len(platforms))
	for _, platform := range platforms {
		name, err := Filename(tmpl, platform)
		if err != nil {
			return nil, err
		}
		content, err := Explicit(lock, platform, creds)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(r.dir, name)
		if err := writeAtomic(path, []byte(content), renderPerm(creds)); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// renderPerm keeps files carrying injected credentials private.
func renderPerm(creds domain.Credentials) os.FileMode {
	if len(creds) > 0 {
		return domain.PrivateFilePerm
	}
	return domain.FilePerm
}

// Filename expands tmpl for platform. Sprig functions are available.
func Filename(tmpl, platform string) (string, error) {
	t, err := template.New("filename").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "invalid filename template"), "template", tmpl)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Platform string }{Platform: platform}); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to expand filename template"), "template", tmpl)
	}
	name := buf.String()
	if name == "" || strings.ContainsAny(name, "\n") {
		return "", zerr.With(zerr.New("filename template produced an unusable name"), "template", tmpl)
	}
	return name, nil
}

// Explicit renders the explicit listing of platform. Native packages become
// url#md5 lines; managed packages are listed as comments since the format
// cannot install them.
func Explicit(lock *domain.Lock, platform string, creds domain.Credentials) (string, error) {
	pkgs := lock.PlatformPackages(platform)
	if len(pkgs) == 0 {
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownPlatform, "cannot render explicit lock"), "platform", platform)
	}

	var b strings.Builder
	b.WriteString("# Generated by lockforge.\n")
	fmt.Fprintf(&b, "# platform: %s\n", platform)
	if hash := lock.Metadata.ContentHash[platform]; hash != "" {
		fmt.Fprintf(&b, "# input_hash: %s\n", hash)
	}
	b.WriteString("@EXPLICIT\n")

	var managed []domain.LockedDependency
	for _, dep := range pkgs {
		if dep.Manager == domain.ManagerPip {
			managed = append(managed, dep)
			continue
		}
		if dep.URL == "" {
			continue
		}
		line := dep.URL
		if digest, ok := strings.CutPrefix(dep.Hash, "md5:"); ok {
			line += "#" + digest
		}
		b.WriteString(InjectAuth(line, creds))
		b.WriteByte('\n')
	}
	for _, dep := range managed {
		line := fmt.Sprintf("# pip %s @ %s", dep.Name, dep.URL)
		if algo, digest, ok := strings.Cut(dep.Hash, ":"); ok {
			line += "#" + algo + "=" + digest
		}
		b.WriteString(InjectAuth(line, creds))
		b.WriteByte('\n')
	}
	return b.String(), nil
}
