package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/poster"
	"github.com/matzehuels/visaposter/pkg/surface"
)

// Runner executes the pipeline against a shared asset loader.
//
// The loader memoizes asset handles, so a long-lived Runner (the interactive
// composer) only fetches the template and each flag once. Multiple
// goroutines can use the same Runner.
type Runner struct {
	Loader     *assets.Loader
	Downloader surface.Downloader
	Logger     *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(loader *assets.Loader, downloader surface.Downloader, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Loader: loader, Downloader: downloader, Logger: logger}
}

// Execute runs the complete fields → layout → export pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	fields, err := opts.Fields()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s := surface.New(r.Loader)
	frame := s.Render(poster.Resolve(fields))
	result := &Result{
		Fields: fields,
		Layers: frame.Layers,
	}
	result.Stats.ResolveTime = time.Since(start)
	result.Stats.LayerCount = len(frame.Layers)
	result.Stats.AssetCount = len(frame.RasterAssets())

	r.Logger.Debug("resolved layout",
		"layers", result.Stats.LayerCount,
		"assets", result.Stats.AssetCount,
		"duration", result.Stats.ResolveTime)

	exportStart := time.Now()
	for _, format := range opts.Formats {
		file, err := r.export(ctx, s, fields, format, &opts, result)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		result.Files = append(result.Files, file)
	}
	result.Stats.ExportTime = time.Since(exportStart)

	r.Logger.Info("exported poster",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)
	return result, nil
}

func (r *Runner) export(ctx context.Context, s *surface.Surface, fields poster.Fields, format string, opts *Options, result *Result) (File, error) {
	filename := fields.DownloadName(format)

	enc := Encoder(format)
	if enc == nil {
		return r.exportLayout(ctx, s, fields, filename)
	}

	exp := surface.NewExporter(r.Downloader,
		surface.WithCompositor(opts.Compositor()),
		surface.WithEncoder(enc),
		surface.WithAssetTimeout(opts.Timeout()),
		surface.WithLogger(r.Logger),
	)
	res, err := exp.Export(ctx, s, filename)
	if err != nil {
		return File{}, err
	}
	result.Stats.Width, result.Stats.Height = res.Width, res.Height
	result.Stats.AssetWait += res.Wait
	r.Logger.Debug("exported image",
		"format", format,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"wait", res.Wait,
		"export_id", res.ID)
	return File{Format: format, Path: res.Location, Size: len(res.Download.Data)}, nil
}

// Layout resolves the layer list for opts without loading any asset.
func (r *Runner) Layout(opts Options) (poster.Fields, []poster.Layer, error) {
	fields, err := opts.Fields()
	if err != nil {
		return poster.Fields{}, nil, err
	}
	return fields, poster.Resolve(fields), nil
}

// Close cancels in-flight asset loads.
func (r *Runner) Close() {
	if r.Loader != nil {
		r.Loader.Close()
	}
}
