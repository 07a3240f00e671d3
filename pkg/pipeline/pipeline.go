// Package pipeline runs the complete fields → layout → export flow for
// visaposter.
//
// This package is shared by the one-shot CLI commands and the interactive
// composer so both resolve, snapshot and deliver posters the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fields: parse and validate the raw inputs, reading a local photo into
//     a data URI
//  2. Layout: resolve the layer list and render it onto a surface, which
//     starts loading every raster asset
//  3. Export: join all assets, snapshot, encode each requested format and
//     deliver the files
//
// # Usage
//
//	src, _ := pipeline.NewSource(pipeline.SourceOptions{AssetsDir: "assets"})
//	runner := pipeline.NewRunner(assets.NewLoader(src), surface.FileDownloader{Dir: "."}, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Name:    "Anita Sharma",
//	    Country: "UK",
//	    Photo:   "anita.jpg",
//	})
//	// result.Files[0].Path == "Anita Sharma-poster.png"
package pipeline

import (
	"time"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/compose"
	"github.com/matzehuels/visaposter/pkg/errors"
	"github.com/matzehuels/visaposter/pkg/poster"
	"github.com/matzehuels/visaposter/pkg/surface"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Composer
// =============================================================================

const (
	// DefaultScale is the export upscaling factor.
	DefaultScale = compose.DefaultScale

	// MaxScale bounds the export size (8x is 4760x6736 pixels).
	MaxScale = 8.0

	// DefaultAssetTimeout bounds the asset readiness join.
	DefaultAssetTimeout = surface.DefaultAssetTimeout
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatWebP: true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one poster export.
type Options struct {
	// Field inputs, as typed by the user.
	Name    string `json:"name"`
	Country string `json:"country"`
	Photo   string `json:"photo,omitempty"` // file path, http(s) URL or data URI

	// Export options
	Formats      []string      `json:"formats,omitempty"`
	Scale        float64       `json:"scale,omitempty"`
	Supersample  int           `json:"supersample,omitempty"`
	NoShadows    bool          `json:"no_shadows,omitempty"`
	AssetTimeout time.Duration `json:"asset_timeout,omitempty"` // 0 uses the default, negative waits forever

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Fields poster.Fields
	Layers []poster.Layer
	Files  []File
	Stats  Stats
}

// File is one delivered artifact.
type File struct {
	Format string
	Path   string
	Size   int
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LayerCount  int
	AssetCount  int
	Width       int
	Height      int
	ResolveTime time.Duration
	AssetWait   time.Duration
	ExportTime  time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, webp, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the export options and applies defaults.
// It is idempotent. Field inputs are checked by [Options.Fields].
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetExportDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 || o.Scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be in (0, %g], got %g", MaxScale, o.Scale)
	}
	if o.Supersample < 0 || o.Supersample > 4 {
		return errors.New(errors.ErrCodeInvalidInput, "supersample must be between 0 and 4, got %d", o.Supersample)
	}
	o.validated = true
	return nil
}

// SetExportDefaults sets default values for exporting.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.AssetTimeout == 0 {
		o.AssetTimeout = DefaultAssetTimeout
	}
}

// Timeout returns the join timeout to pass to the exporter, where 0 means
// unbounded.
func (o *Options) Timeout() time.Duration {
	if o.AssetTimeout < 0 {
		return 0
	}
	return o.AssetTimeout
}

// Fields parses the raw field inputs. A local photo path is read into a data
// URI.
func (o *Options) Fields() (poster.Fields, error) {
	country, err := poster.ParseCountry(o.Country)
	if err != nil {
		return poster.Fields{}, err
	}
	photo, err := assets.PhotoRefFor(o.Photo)
	if err != nil {
		return poster.Fields{}, err
	}
	f := poster.Fields{Name: o.Name, Country: country, Photo: poster.PhotoRef(photo)}
	if err := f.Validate(); err != nil {
		return poster.Fields{}, err
	}
	return f, nil
}

// Compositor builds the compositor for these options.
func (o *Options) Compositor() *compose.Compositor {
	return compose.New(
		compose.WithScale(o.Scale),
		compose.WithSupersample(o.Supersample),
		compose.WithShadows(!o.NoShadows),
	)
}

// Encoder returns the image encoder for format, or nil for non-image formats.
func Encoder(format string) surface.Encoder {
	switch format {
	case FormatPNG:
		return surface.PNGEncoder{}
	case FormatWebP:
		return surface.WebPEncoder{}
	}
	return nil
}
