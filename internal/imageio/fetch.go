package imageio

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/yyyoichi/httpcache-go"
)

var (
	DefaultCacheDir = filepath.Join("/tmp", "svdimage_http_cache")
	DefaultInterval = 250 * time.Millisecond

	defaultFetcher = NewFetcher(DefaultCacheDir, DefaultInterval)
)

// throttle is the transport under the cache: only requests that miss the cache
// reach it, and it spaces them at least interval apart.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func (th *throttle) Do(req *http.Request) (*http.Response, error) {
	th.mu.Lock()
	defer th.mu.Unlock()
	if wait := th.interval - time.Since(th.last); wait > 0 {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
	defer func() { th.last = time.Now() }()
	return http.DefaultClient.Do(req)
}

// Fetcher downloads images over HTTP and keeps the responses in an on-disk cache.
type Fetcher struct {
	cacheDir string
	client   httpcache.Client
}

func NewFetcher(cacheDir string, interval time.Duration) *Fetcher {
	return &Fetcher{
		cacheDir: cacheDir,
		client: httpcache.Client{
			Client:  &throttle{interval: interval},
			Cache:   httpcache.NewStorageCache(cacheDir),
			Handler: httpcache.NewDefaultHandler(),
		},
	}
}

// Fetch downloads and decodes the image at uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// CachedPath returns the file the cache uses for uri.
func (f *Fetcher) CachedPath(uri string) (string, error) {
	u, err := url.ParseRequestURI(uri)
	if err != nil {
		return "", err
	}
	o := httpcache.NewHttpResponseObject(u)
	return filepath.Join(f.cacheDir, o.Key()), nil
}
