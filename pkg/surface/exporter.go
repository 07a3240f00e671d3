package surface

import (
	"bytes"
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/compose"
	"github.com/matzehuels/visaposter/pkg/errors"
	"github.com/matzehuels/visaposter/pkg/observability"
	"github.com/matzehuels/visaposter/pkg/poster"
)

// DefaultAssetTimeout bounds the readiness join unless configured otherwise.
const DefaultAssetTimeout = 30 * time.Second

// Exporter snapshots a surface and delivers the encoded result. One export
// runs at a time per Exporter.
type Exporter struct {
	compositor *compose.Compositor
	encoder    Encoder
	downloader Downloader
	timeout    time.Duration
	logger     *log.Logger

	mu sync.Mutex
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithCompositor sets the compositor. The default draws at compose.DefaultScale.
func WithCompositor(c *compose.Compositor) ExporterOption {
	return func(e *Exporter) {
		if c != nil {
			e.compositor = c
		}
	}
}

// WithEncoder sets the output encoding. The default is PNG.
func WithEncoder(enc Encoder) ExporterOption {
	return func(e *Exporter) {
		if enc != nil {
			e.encoder = enc
		}
	}
}

// WithAssetTimeout bounds the wait for assets. Zero waits until the export
// context ends.
func WithAssetTimeout(d time.Duration) ExporterOption {
	return func(e *Exporter) { e.timeout = d }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExporter creates an exporter that hands finished files to d.
func NewExporter(d Downloader, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		compositor: compose.New(),
		encoder:    PNGEncoder{},
		downloader: d,
		timeout:    DefaultAssetTimeout,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result describes a delivered export.
type Result struct {
	ID       string
	Download *Download
	Location string
	Frame    *Frame
	Width    int
	Height   int
	Wait     time.Duration
	Duration time.Duration
}

// Export snapshots the current frame of s and delivers it as filename. An
// empty filename falls back to the default download name.
func (e *Exporter) Export(ctx context.Context, s *Surface, filename string) (*Result, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeNoSurface, "no composition surface")
	}
	return e.ExportFrame(ctx, s, s.Frame(), filename)
}

// ExportFrame is Export for a frame captured earlier from s, so a caller that
// keeps rendering can still export exactly the frame it saw.
func (e *Exporter) ExportFrame(ctx context.Context, s *Surface, frame *Frame, filename string) (*Result, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeNoSurface, "no composition surface")
	}
	if frame.Empty() {
		return nil, errors.New(errors.ErrCodeNoSurface, "nothing has been rendered")
	}
	if !e.mu.TryLock() {
		return nil, errors.New(errors.ErrCodeExportBusy, "an export is already in progress")
	}
	defer e.mu.Unlock()

	if filename == "" {
		filename = poster.Fields{}.DownloadName(e.encoder.Format())
	}

	res := &Result{ID: uuid.NewString(), Frame: frame}
	start := time.Now()
	handles := s.handles(frame)
	hooks := observability.Export()
	hooks.OnExportStart(ctx, res.ID, len(handles))
	e.logger.Debug("export started", "id", res.ID, "generation", frame.Generation, "assets", len(handles))

	err := e.run(ctx, res, frame, handles, filename)
	res.Duration = time.Since(start)

	size := 0
	if res.Download != nil {
		size = len(res.Download.Data)
	}
	hooks.OnExportComplete(ctx, res.ID, filename, size, res.Duration, err)
	if err != nil {
		e.logger.Debug("export failed", "id", res.ID, "err", err)
		return nil, err
	}
	e.logger.Debug("export finished", "id", res.ID, "file", res.Location, "bytes", size, "duration", res.Duration)
	return res, nil
}

func (e *Exporter) run(ctx context.Context, res *Result, frame *Frame, handles []*assets.Handle, filename string) error {
	joinStart := time.Now()
	hooks := observability.Export()
	ready, err := assets.Join(ctx, handles,
		assets.WithJoinTimeout(e.timeout),
		assets.OnReady(func(id string, wait time.Duration, err error) {
			hooks.OnAssetReady(ctx, res.ID, id, wait, err)
		}),
	)
	if err != nil {
		return err
	}
	res.Wait = time.Since(joinStart)

	images := make(map[poster.AssetID]image.Image, len(ready))
	for id, img := range ready {
		images[poster.AssetID(id)] = img
	}
	img, err := e.compositor.Draw(frame.Layers, images)
	if err != nil {
		if errors.GetCode(err) == "" {
			return errors.Wrap(errors.ErrCodeSnapshot, err, "snapshot")
		}
		return err
	}
	b := img.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()

	var buf bytes.Buffer
	if err := e.encoder.Encode(&buf, img); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "encode %s", e.encoder.Format())
	}

	res.Download = &Download{
		Filename:    filename,
		ContentType: e.encoder.ContentType(),
		Data:        buf.Bytes(),
	}
	loc, err := e.downloader.Deliver(ctx, res.Download)
	if err != nil {
		if errors.GetCode(err) == "" {
			return errors.Wrap(errors.ErrCodeDelivery, err, "deliver %s", filename)
		}
		return err
	}
	res.Location = loc
	return nil
}
