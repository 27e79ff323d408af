package lockfile

import (
	"regexp"
	"strings"

	"go.trai.ch/lockforge/internal/core/domain"
)

var (
	userinfo = regexp.MustCompile(`(https?://)([^\s/@]+)@`)
	httpURL  = regexp.MustCompile(`https?://[^\s"'<>]+`)
)

// StripAuth removes user:password@ userinfo from every http(s) URL in text.
func StripAuth(text string) string {
	return userinfo.ReplaceAllString(text, "$1")
}

// InjectAuth adds userinfo to every http(s) URL in text whose host and path match a
// credential key, choosing the longest matching key. URLs that already carry
// userinfo are left alone.
func InjectAuth(text string, creds domain.Credentials) string {
	if len(creds) == 0 {
		return text
	}
	return httpURL.ReplaceAllStringFunc(text, func(u string) string {
		scheme, rest, _ := strings.Cut(u, "://")
		authority, _, _ := strings.Cut(rest, "/")
		if strings.Contains(authority, "@") {
			return u
		}
		hostPath, _, _ := strings.Cut(rest, "#")
		secret, ok := creds.Lookup(hostPath)
		if !ok {
			return u
		}
		return scheme + "://" + secret + "@" + rest
	})
}

// StripLock returns a copy of lock with credentials removed from channels and package URLs.
func StripLock(lock *domain.Lock) *domain.Lock {
	return mapURLs(lock, StripAuth)
}

// InjectLock returns a copy of lock with credentials added to channels and package URLs.
func InjectLock(lock *domain.Lock, creds domain.Credentials) *domain.Lock {
	return mapURLs(lock, func(s string) string { return InjectAuth(s, creds) })
}

func mapURLs(lock *domain.Lock, fn func(string) string) *domain.Lock {
	out := *lock
	out.Metadata.Channels = make([]string, len(lock.Metadata.Channels))
	for i, ch := range lock.Metadata.Channels {
		out.Metadata.Channels[i] = fn(ch)
	}
	out.Packages = make([]domain.LockedDependency, len(lock.Packages))
	for i, dep := range lock.Packages {
		dep.URL = fn(dep.URL)
		out.Packages[i] = dep
	}
	return &out
}
