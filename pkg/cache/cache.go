// Package cache stores fetched asset bytes so repeated poster exports do not
// refetch remote flags, templates or photos.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entries under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for several machines composing
//     posters from the same remote asset host
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so callers never build raw key strings.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLAsset is how long fetched remote asset bytes are kept.
	TTLAsset = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the value for key. The bool reports a hit; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// NullCache never stores anything. It backs --no-cache and
// [cache] disabled = true.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)          { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

var _ Cache = (*NullCache)(nil)

// Keyer builds cache keys.
type Keyer interface {
	// AssetKey returns the key for the raw bytes of an asset fetched from source.
	AssetKey(source, assetID string) string
}

// DefaultKeyer produces "asset:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// AssetKey hashes source and asset id together so long URLs stay short keys.
func (DefaultKeyer) AssetKey(source, assetID string) string {
	return hashKey("asset", source, assetID)
}
