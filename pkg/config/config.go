// Package config loads visaposter settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/visaposter/config.toml (see [Path]).
// A missing file is not an error: every key has a default. Command-line
// flags override file values through [Config.Resolve].
package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/visaposter/pkg/cache"
	"github.com/matzehuels/visaposter/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "visaposter"

// Config holds all settings.
type Config struct {
	// Assets
	AssetsDir string `toml:"assets_dir"`
	AssetsURL string `toml:"assets_url"`

	// Export
	OutputDir    string        `toml:"output_dir"`
	Scale        float64       `toml:"scale"`
	Supersample  int           `toml:"supersample"`
	Formats      []string      `toml:"formats"`
	AssetTimeout time.Duration `toml:"asset_timeout"` // 0 waits without limit

	Cache CacheConfig `toml:"cache"`
	HTTP  HTTPConfig  `toml:"http"`
}

// CacheConfig configures the remote asset cache.
type CacheConfig struct {
	Dir      string        `toml:"dir"`
	TTL      time.Duration `toml:"ttl"`
	RedisURL string        `toml:"redis_url"`
	Disabled bool          `toml:"disabled"`
}

// HTTPConfig configures remote asset fetches.
type HTTPConfig struct {
	Timeout   time.Duration `toml:"timeout"`
	UserAgent string        `toml:"user_agent"`
}

// DefaultTOML is written by `visaposter config init`. It documents every key
// with its default value.
const DefaultTOML = `# visaposter configuration

# Directory holding images/visa.png and flags/*.png. When empty (and
# assets_url is empty too) builtin placeholder art is used.
assets_dir = ""
# Base URL serving the same layout as assets_dir.
assets_url = ""

# Where exported posters are written.
output_dir = "."
# Export upscaling factor relative to the 595x842 template.
scale = 2.0
# Render at N times the scale and downsample (0 or 1 disables).
supersample = 0
# Formats written by "visaposter render": png, webp, json.
formats = ["png"]
# Longest wait for all assets before an export fails. "0s" waits forever.
asset_timeout = "30s"

[cache]
# Defaults to the user cache directory.
dir = ""
ttl = "168h"
# Use a shared Redis instead of the file cache, e.g. "redis://localhost:6379/0".
redis_url = ""
disabled = false

[http]
timeout = "10s"
user_agent = ""
`

// Default returns the built-in settings.
func Default() Config {
	return Config{
		OutputDir:    ".",
		Scale:        2.0,
		Formats:      []string{"png"},
		AssetTimeout: 30 * time.Second,
		Cache: CacheConfig{
			TTL: cache.TTLAsset,
		},
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Dir returns the config directory, using XDG_CONFIG_HOME or the platform
// default.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Path returns the full path to config.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config at path. A missing file yields [Default].
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Default(), errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

var knownFormats = []string{"png", "webp", "json"}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Scale <= 0 || c.Scale > 8 {
		return errors.New(errors.ErrCodeInvalidConfig, "scale must be in (0, 8], got %g", c.Scale)
	}
	if c.Supersample < 0 || c.Supersample > 4 {
		return errors.New(errors.ErrCodeInvalidConfig, "supersample must be between 0 and 4, got %d", c.Supersample)
	}
	if c.AssetTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "asset_timeout must not be negative")
	}
	for _, f := range c.Formats {
		if !slices.Contains(knownFormats, f) {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (must be one of: png, webp, json)", f)
		}
	}
	if c.Cache.TTL < 0 || c.HTTP.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "durations must not be negative")
	}
	return nil
}

// Flags holds command-line values that override the file. Zero values
// leave the file setting in place; AssetTimeout applies only when
// AssetTimeoutSet is true since zero is meaningful.
type Flags struct {
	AssetsDir       string
	AssetsURL       string
	OutputDir       string
	Scale           float64
	Supersample     int
	Formats         []string
	AssetTimeout    time.Duration
	AssetTimeoutSet bool
	NoCache         bool
}

// Resolve applies flag overrides and fills derived defaults.
func (c *Config) Resolve(flags Flags) error {
	if flags.AssetsDir != "" {
		c.AssetsDir = flags.AssetsDir
		c.AssetsURL = ""
	}
	if flags.AssetsURL != "" {
		c.AssetsURL = flags.AssetsURL
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Scale > 0 {
		c.Scale = flags.Scale
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if len(flags.Formats) > 0 {
		c.Formats = flags.Formats
	}
	if flags.AssetTimeoutSet {
		c.AssetTimeout = flags.AssetTimeout
	}
	if flags.NoCache {
		c.Cache.Disabled = true
	}

	if c.Cache.Dir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("user cache dir: %w", err)
		}
		c.Cache.Dir = filepath.Join(dir, AppName)
	}
	return c.Validate()
}

// OpenCache opens the configured asset cache: Redis when redis_url is set,
// otherwise a file cache under cache.dir. A disabled cache is a NullCache.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch {
	case c.Cache.Disabled:
		return cache.NewNullCache(), nil
	case c.Cache.RedisURL != "":
		return cache.NewRedisCache(ctx, c.Cache.RedisURL, AppName+":")
	default:
		fc, err := cache.NewFileCache(c.Cache.Dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// WriteDefault writes [DefaultTOML] to path. An existing file is kept
// unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(DefaultTOML), 0o644)
}

// Encode writes c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
