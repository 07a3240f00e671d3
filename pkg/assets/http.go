package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/visaposter/pkg/buildinfo"
	"github.com/matzehuels/visaposter/pkg/cache"
	"github.com/matzehuels/visaposter/pkg/observability"
)

// DefaultHTTPTimeout bounds a single asset request. Retries follow
// cache.DefaultBackoff.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPSource fetches assets over http(s). Responses are stored in a byte
// cache keyed by URL; transient failures (network errors, 429 and 5xx) are
// retried with exponential backoff.
type HTTPSource struct {
	client    *http.Client
	base      *url.URL
	cache     cache.Cache
	keyer     cache.Keyer
	ttl       time.Duration
	userAgent string
	backoff   cache.Backoff
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client = &http.Client{Timeout: d}
		}
	}
}

// WithBaseURL resolves relative ids against base, so bundled assets can be
// served from a remote host.
func WithBaseURL(base *url.URL) HTTPOption {
	return func(s *HTTPSource) { s.base = base }
}

// WithCache stores fetched bytes in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.cache, s.ttl = c, ttl }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(s *HTTPSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithRetry sets the attempt count and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.backoff.Attempts, s.backoff.Delay = attempts, delay
	}
}

// NewHTTPSource creates an HTTP source.
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		client:    &http.Client{Timeout: DefaultHTTPTimeout},
		cache:     cache.NewNullCache(),
		keyer:     cache.NewDefaultKeyer(),
		ttl:       cache.TTLAsset,
		userAgent: buildinfo.UserAgent(),
		backoff:   cache.DefaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source name.
func (s *HTTPSource) Name() string { return "http" }

// Fetch returns the bytes at id, from the cache when possible.
func (s *HTTPSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	u, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	key := s.keyer.AssetKey(s.Name(), u.String())

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "asset")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "asset")

	var data []byte
	err = s.backoff.Do(ctx, func() error {
		var ferr error
		data, ferr = s.get(ctx, u)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, data, s.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "asset", len(data))
	}
	return data, nil
}

func (s *HTTPSource) resolve(id string) (*url.URL, error) {
	u, err := url.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid asset url %q: %w", id, err)
	}
	if !u.IsAbs() {
		if s.base == nil {
			return nil, fmt.Errorf("relative asset %q without base url", id)
		}
		u = s.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported asset url scheme %q", u.Scheme)
	}
	return u, nil
}

func (s *HTTPSource) get(ctx context.Context, u *url.URL) ([]byte, error) {
	hooks := observability.HTTP()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "image/*")

	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", u, cache.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("%w: %s returned %d", cache.ErrNetwork, u, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s returned %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read body: %v", cache.ErrNetwork, err))
	}
	if len(data) > MaxAssetBytes {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", u, cache.ErrTooLarge, MaxAssetBytes)
	}
	return data, nil
}
