package domain

import (
	"maps"
	"slices"
	"strings"
)

// Credentials maps "host[/path-prefix]" keys to "user:password" secrets.
type Credentials map[string]string

// Lookup returns the secret of the longest key matching hostPath at a path boundary.
func (c Credentials) Lookup(hostPath string) (string, bool) {
	best := ""
	for key := range c {
		if !credentialKeyMatches(key, hostPath) {
			continue
		}
		if len(key) > len(best) {
			best = key
		}
	}
	if best == "" {
		return "", false
	}
	return c[best], true
}

// Keys returns the keys in sorted order.
func (c Credentials) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Merge returns a copy of c overlaid with other.
func (c Credentials) Merge(other Credentials) Credentials {
	out := make(Credentials, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}

func credentialKeyMatches(key, hostPath string) bool {
	key = strings.TrimSuffix(key, "/")
	if !strings.HasPrefix(hostPath, key) {
		return false
	}
	rest := hostPath[len(key):]
	return rest == "" || strings.HasPrefix(rest, "/")
}
