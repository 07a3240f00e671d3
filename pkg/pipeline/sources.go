package pipeline

import (
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/cache"
	"github.com/matzehuels/visaposter/pkg/errors"
)

// SourceOptions selects where assets come from.
type SourceOptions struct {
	// AssetsDir holds images/visa.png and flags/*.png. Takes precedence
	// over AssetsURL.
	AssetsDir string
	// AssetsURL is a base URL serving the same layout as AssetsDir.
	AssetsURL string

	// Cache stores remote asset bytes. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	HTTPTimeout time.Duration
	UserAgent   string
}

// NewSource builds the asset source: bundled assets from AssetsDir,
// AssetsURL or the builtin placeholders, http(s) photos through a cached
// HTTP source and data URI photos decoded inline.
func NewSource(o SourceOptions) (assets.Source, error) {
	c := o.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	ttl := o.CacheTTL
	if ttl == 0 {
		ttl = cache.TTLAsset
	}
	httpOpts := []assets.HTTPOption{
		assets.WithTimeout(o.HTTPTimeout),
		assets.WithUserAgent(o.UserAgent),
		assets.WithCache(c, ttl),
	}

	var local assets.Source
	switch {
	case o.AssetsDir != "":
		dir, err := assets.NewDirSource(o.AssetsDir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "assets_dir")
		}
		local = dir
	case o.AssetsURL != "":
		base, err := url.Parse(o.AssetsURL)
		if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "assets_url must be an http(s) URL, got %q", o.AssetsURL)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		local = assets.NewHTTPSource(append(httpOpts, assets.WithBaseURL(base))...)
	default:
		local = assets.BuiltinSource{}
	}

	return &assets.Mux{
		Local:  local,
		Remote: assets.NewHTTPSource(httpOpts...),
		Inline: assets.DataURISource{},
	}, nil
}
