package pypi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// ErrProjectNotFound is returned when the registry has no such project or release.
var ErrProjectNotFound = zerr.New("project not found in registry")

// ErrRegistry is returned for unexpected registry responses.
var ErrRegistry = zerr.New("registry request failed")

const metadataCacheSize = 512

// Project is the registry view of a project, or of one release of it.
type Project struct {
	Info     ProjectInfo       `json:"info"`
	Releases map[string][]File `json:"releases"`
	// URLs lists the files of the release a per-version query asked for.
	URLs []File `json:"urls"`
}

// ProjectInfo is the metadata of the latest (or queried) release.
type ProjectInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	RequiresDist   []string `json:"requires_dist"`
	RequiresPython string   `json:"requires_python"`
}

// File is one distribution artifact of a release.
type File struct {
	Filename       string            `json:"filename"`
	URL            string            `json:"url"`
	PackageType    string            `json:"packagetype"`
	Digests        map[string]string `json:"digests"`
	RequiresPython string            `json:"requires_python"`
	Yanked         bool              `json:"yanked"`
}

// Client reads the PyPI JSON API. Responses are cached and concurrent identical
// requests share one round trip.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *lru.Cache[string, *Project]
	group   singleflight.Group
}

// NewClient creates a client for the JSON API rooted at baseURL (e.g. https://pypi.org/pypi).
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	cache, err := lru.New[string, *Project](metadataCacheSize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create metadata cache")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		cache:   cache,
	}, nil
}

// Project returns every release of name.
func (c *Client) Project(ctx context.Context, name string) (*Project, error) {
	return c.metadata(ctx, name, c.baseURL+"/"+url.PathEscape(name)+"/json")
}

// Release returns the metadata of one release of name.
func (c *Client) Release(ctx context.Context, name, version string) (*Project, error) {
	return c.metadata(ctx, name+"@"+version,
		c.baseURL+"/"+url.PathEscape(name)+"/"+url.PathEscape(version)+"/json")
}

func (c *Client) metadata(ctx context.Context, key, endpoint string) (*Project, error) {
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if p, ok := c.cache.Get(key); ok {
			return p, nil
		}
		resp, err := c.do(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		var p Project
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return nil, zerr.With(zerr.Wrap(ErrRegistry, "cannot decode metadata: "+err.Error()), "url", endpoint)
		}
		c.cache.Add(key, &p)
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	project, ok := result.(*Project)
	if !ok {
		return nil, zerr.Wrap(ErrRegistry, "unexpected metadata type")
	}
	return project, nil
}

// Digest downloads artifactURL and returns its sha256 as lowercase hex.
func (c *Client) Digest(ctx context.Context, artifactURL string) (string, error) {
	result, err, _ := c.group.Do("sha256:"+artifactURL, func() (any, error) {
		resp, err := c.do(ctx, artifactURL)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		h := sha256.New()
		if _, err := io.Copy(h, resp.Body); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to download artifact"), "url", artifactURL)
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	})
	if err != nil {
		return "", err
	}
	digest, _ := result.(string)
	return digest, nil
}

func (c *Client) do(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid registry url"), "url", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "registry request failed"), "url", endpoint)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, zerr.With(zerr.Wrap(ErrProjectNotFound, "registry returned 404"), "url", endpoint)
	case resp.StatusCode != http.StatusOK:
		_ = resp.Body.Close()
		return nil, zerr.With(zerr.Wrap(ErrRegistry, fmt.Sprintf("unexpected status %d", resp.StatusCode)), "url", endpoint)
	}
	return resp, nil
}
