// Package cli implements the visaposter command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/buildinfo"
	"github.com/matzehuels/visaposter/pkg/cache"
	"github.com/matzehuels/visaposter/pkg/config"
	"github.com/matzehuels/visaposter/pkg/pipeline"
	"github.com/matzehuels/visaposter/pkg/surface"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the default config file location.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Visaposter composes visa-granted celebration posters",
		Long:         `Visaposter lays out a celebration poster from a name, a destination country and a photo, then exports it as a high-resolution image.`,
		Version:      buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/visaposter/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.countriesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig(flags config.Flags) (config.Config, error) {
	path, err := c.configFile()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Resolve(flags); err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("loaded config", "path", path, "assets_dir", cfg.AssetsDir, "cache", cfg.Cache.Dir)
	return cfg, nil
}

// env bundles what a command needs to export posters. Close releases the
// cache and cancels outstanding asset loads.
type env struct {
	cfg    config.Config
	cache  cache.Cache
	runner *pipeline.Runner
}

func (e *env) Close() {
	e.runner.Close()
	_ = e.cache.Close()
}

// newEnv opens the cache and builds an asset loader and runner for cfg that
// log to logger.
func newEnv(ctx context.Context, cfg config.Config, logger *log.Logger) (*env, error) {
	ac, err := cfg.OpenCache(ctx)
	if err != nil {
		logger.Warn("asset cache unavailable, continuing without it", "err", err)
		ac = cache.NewNullCache()
	}

	src, err := pipeline.NewSource(pipeline.SourceOptions{
		AssetsDir:   cfg.AssetsDir,
		AssetsURL:   cfg.AssetsURL,
		Cache:       ac,
		CacheTTL:    cfg.Cache.TTL,
		HTTPTimeout: cfg.HTTP.Timeout,
		UserAgent:   cfg.HTTP.UserAgent,
	})
	if err != nil {
		_ = ac.Close()
		return nil, err
	}

	loader := assets.NewLoader(src, assets.WithLogger(logger))
	runner := pipeline.NewRunner(loader, surface.FileDownloader{Dir: cfg.OutputDir}, logger)
	return &env{cfg: cfg, cache: ac, runner: runner}, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// exportOptions maps config export settings onto pipeline options.
func exportOptions(cfg config.Config) pipeline.Options {
	opts := pipeline.Options{
		Formats:      cfg.Formats,
		Scale:        cfg.Scale,
		Supersample:  cfg.Supersample,
		AssetTimeout: cfg.AssetTimeout,
	}
	// The config file spells "wait forever" as 0; the pipeline uses negative.
	if cfg.AssetTimeout == 0 {
		opts.AssetTimeout = -1
	}
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
