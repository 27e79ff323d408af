package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/ini.v1"
)

// CredentialFile loads channel credentials from an INI file.
//
// Each section names a "host[/path]" key and carries username and password
// entries. Top-level entries use the short form "host = user:password".
type CredentialFile struct{}

// NewCredentialFile creates a new CredentialFile.
func NewCredentialFile() *CredentialFile {
	return &CredentialFile{}
}

// Load reads path. An empty path or missing file yields no credentials.
func (c *CredentialFile) Load(path string) (domain.Credentials, error) {
	creds := domain.Credentials{}
	if path == "" {
		return creds, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return creds, nil
	}

	file, err := ini.LoadSources(ini.LoadOptions{KeyValueDelimiters: "=", IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read credentials"), "path", path)
	}

	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			for _, key := range section.Keys() {
				if key.Value() == "" {
					continue
				}
				creds[normalizeKey(key.Name())] = key.Value()
			}
			continue
		}
		user := section.Key("username").String()
		if user == "" {
			return nil, zerr.With(zerr.New("credential section has no username"), "section", section.Name())
		}
		secret := user
		if password := section.Key("password").String(); password != "" {
			secret += ":" + password
		}
		creds[normalizeKey(section.Name())] = secret
	}
	return creds, nil
}

func normalizeKey(key string) string {
	key = strings.TrimPrefix(key, "https://")
	key = strings.TrimPrefix(key, "http://")
	return strings.TrimSuffix(key, "/")
}
