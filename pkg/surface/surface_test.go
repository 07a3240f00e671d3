package surface

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/compose"
	"github.com/matzehuels/visaposter/pkg/errors"
	"github.com/matzehuels/visaposter/pkg/observability"
	"github.com/matzehuels/visaposter/pkg/poster"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.New(w, h, c)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func assetFS(t *testing.T) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{
		"images/visa.png": &fstest.MapFile{Data: encodePNG(t, 60, 85, color.NRGBA{0xee, 0xee, 0xdd, 0xff})},
	}
	for _, c := range poster.Countries() {
		pair, _ := poster.FlagsFor(c)
		fsys[string(pair.Left)] = &fstest.MapFile{Data: encodePNG(t, 30, 20, color.NRGBA{0xcc, 0, 0, 0xff})}
	}
	return fsys
}

// gatedSource blocks every fetch until its gate is closed.
type gatedSource struct {
	inner assets.Source
	gate  chan struct{}
}

func (g *gatedSource) Name() string { return "gated" }

func (g *gatedSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.inner.Fetch(ctx, id)
}

// recorder is a Downloader that keeps what it receives.
type recorder struct {
	mu    sync.Mutex
	files []*Download
}

func (r *recorder) Deliver(ctx context.Context, d *Download) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, d)
	return "mem://" + d.Filename, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

type exportHookRecorder struct {
	observability.NoopExportHooks
	mu     sync.Mutex
	assets []int
	ready  []string
}

func (h *exportHookRecorder) OnExportStart(_ context.Context, _ string, n int) {
	h.mu.Lock()
	h.assets = append(h.assets, n)
	h.mu.Unlock()
}

func (h *exportHookRecorder) OnAssetReady(_ context.Context, _ string, id string, _ time.Duration, _ error) {
	h.mu.Lock()
	h.ready = append(h.ready, id)
	h.mu.Unlock()
}

// startSignal closes started when the first export begins.
type startSignal struct {
	observability.NoopExportHooks
	once    sync.Once
	started chan struct{}
}

func onExportStart(t *testing.T) <-chan struct{} {
	t.Helper()
	h := &startSignal{started: make(chan struct{})}
	observability.SetExportHooks(h)
	t.Cleanup(observability.Reset)
	return h.started
}

func (h *startSignal) OnExportStart(context.Context, string, int) {
	h.once.Do(func() { close(h.started) })
}

func waitStarted(t *testing.T, started <-chan struct{}) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("export never started")
	}
}

func newTestSurface(t *testing.T, src assets.Source) *Surface {
	t.Helper()
	loader := assets.NewLoader(&assets.Mux{Local: src, Inline: assets.DataURISource{}})
	t.Cleanup(loader.Close)
	return New(loader)
}

func TestExportFullPoster(t *testing.T) {
	hooks := &exportHookRecorder{}
	observability.SetExportHooks(hooks)
	t.Cleanup(observability.Reset)

	s := newTestSurface(t, assets.NewFSSource(assetFS(t)))
	photo := assets.EncodeDataURI(encodePNG(t, 40, 50, color.NRGBA{0, 0x80, 0xff, 0xff}))
	fields := poster.Fields{Name: "Anita Sharma", Country: poster.CountryUK, Photo: poster.PhotoRef(photo)}

	frame := s.Render(poster.Resolve(fields))
	if len(frame.Layers) != 6 {
		t.Fatalf("layers = %d, want 6", len(frame.Layers))
	}

	rec := &recorder{}
	res, err := NewExporter(rec).Export(context.Background(), s, fields.DownloadName("png"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Download.Filename != "Anita Sharma-poster.png" {
		t.Errorf("filename = %q", res.Download.Filename)
	}
	if res.Download.ContentType != "image/png" {
		t.Errorf("content type = %q", res.Download.ContentType)
	}
	img, err := png.Decode(bytes.NewReader(res.Download.Data))
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1190 || b.Dy() != 1684 {
		t.Errorf("export size = %dx%d, want 1190x1684", b.Dx(), b.Dy())
	}
	if rec.count() != 1 {
		t.Errorf("deliveries = %d, want 1", rec.count())
	}
	if len(hooks.assets) != 1 || hooks.assets[0] != 3 {
		t.Errorf("export asset counts = %v, want [3]", hooks.assets)
	}
	if len(hooks.ready) != 3 {
		t.Errorf("ready events = %v, want 3", hooks.ready)
	}
}

func TestExportMinimalPoster(t *testing.T) {
	s := newTestSurface(t, assets.NewFSSource(assetFS(t)))
	fields := poster.Fields{}
	frame := s.Render(poster.Resolve(fields))
	if len(frame.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(frame.Layers))
	}
	res, err := NewExporter(&recorder{}).Export(context.Background(), s, fields.DownloadName("png"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Download.Filename != "visa-granted-poster.png" {
		t.Errorf("filename = %q", res.Download.Filename)
	}
}

func TestExportNoSurface(t *testing.T) {
	rec := &recorder{}
	e := NewExporter(rec)
	ctx := context.Background()

	if _, err := e.Export(ctx, nil, "x.png"); !errors.Is(err, errors.ErrCodeNoSurface) {
		t.Errorf("nil surface err = %v", err)
	}
	s := newTestSurface(t, assets.NewFSSource(assetFS(t)))
	if _, err := e.Export(ctx, s, "x.png"); !errors.Is(err, errors.ErrCodeNoSurface) {
		t.Errorf("unrendered surface err = %v", err)
	}
	s.Render(nil)
	if _, err := e.Export(ctx, s, "x.png"); !errors.Is(err, errors.ErrCodeNoSurface) {
		t.Errorf("empty frame err = %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("deliveries = %d, want 0", rec.count())
	}
}

func TestExportWaitsForAllAssets(t *testing.T) {
	src := &gatedSource{inner: assets.NewFSSource(assetFS(t)), gate: make(chan struct{})}
	s := newTestSurface(t, src)
	s.Render(poster.Resolve(poster.Fields{Country: poster.CountryNZ}))

	rec := &recorder{}
	e := NewExporter(rec, WithAssetTimeout(0))
	done := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), s, "")
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("export finished before assets loaded: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	if rec.count() != 0 {
		t.Fatal("download delivered before assets loaded")
	}

	close(src.gate)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Export: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("export did not finish after assets loaded")
	}
	if rec.count() != 1 {
		t.Errorf("deliveries = %d, want 1", rec.count())
	}
}

func TestExportBusy(t *testing.T) {
	src := &gatedSource{inner: assets.NewFSSource(assetFS(t)), gate: make(chan struct{})}
	s := newTestSurface(t, src)
	s.Render(poster.Resolve(poster.Fields{}))

	started := onExportStart(t)
	e := NewExporter(&recorder{})
	done := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), s, "")
		done <- err
	}()
	waitStarted(t, started)

	if _, err := e.Export(context.Background(), s, ""); !errors.Is(err, errors.ErrCodeExportBusy) {
		t.Errorf("concurrent export err = %v, want EXPORT_BUSY", err)
	}
	close(src.gate)
	if err := <-done; err != nil {
		t.Fatalf("first export: %v", err)
	}
}

func TestExportTimeoutThenRetry(t *testing.T) {
	src := &gatedSource{inner: assets.NewFSSource(assetFS(t)), gate: make(chan struct{})}
	s := newTestSurface(t, src)
	s.Render(poster.Resolve(poster.Fields{Country: poster.CountryCanada}))

	rec := &recorder{}
	e := NewExporter(rec, WithAssetTimeout(20*time.Millisecond))
	_, err := e.Export(context.Background(), s, "")
	if !errors.Is(err, errors.ErrCodeAssetTimeout) {
		t.Fatalf("err = %v, want ASSET_TIMEOUT", err)
	}
	if rec.count() != 0 {
		t.Fatal("download delivered after a timeout")
	}

	close(src.gate)
	if _, err := e.Export(context.Background(), s, ""); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestExportAssetLoadFailure(t *testing.T) {
	fsys := assetFS(t)
	delete(fsys, "flags/usa.png")
	s := newTestSurface(t, assets.NewFSSource(fsys))
	s.Render(poster.Resolve(poster.Fields{Country: poster.CountryUSA}))

	rec := &recorder{}
	_, err := NewExporter(rec).Export(context.Background(), s, "")
	if !errors.Is(err, errors.ErrCodeAssetLoad) {
		t.Fatalf("err = %v, want ASSET_LOAD", err)
	}
	if rec.count() != 0 {
		t.Fatal("download delivered after a load failure")
	}
}

func TestExportUsesFrameAtInvocation(t *testing.T) {
	src := &gatedSource{inner: assets.NewFSSource(assetFS(t)), gate: make(chan struct{})}
	s := newTestSurface(t, src)
	first := s.Render(poster.Resolve(poster.Fields{Country: poster.CountryUK}))

	started := onExportStart(t)
	e := NewExporter(&recorder{}, WithCompositor(compose.New(compose.WithScale(1))))
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := e.Export(context.Background(), s, "")
		done <- outcome{res, err}
	}()

	waitStarted(t, started)
	s.Render(poster.Resolve(poster.Fields{Name: "Later"}))
	close(src.gate)

	out := <-done
	if out.err != nil {
		t.Fatalf("Export: %v", out.err)
	}
	if out.res.Frame.Generation != first.Generation {
		t.Errorf("exported generation %d, want %d", out.res.Frame.Generation, first.Generation)
	}
	if out.res.Width != 595 {
		t.Errorf("width = %d, want 595 at scale 1", out.res.Width)
	}
}

func TestExportFrameIgnoresLaterRenders(t *testing.T) {
	s := newTestSurface(t, assets.NewFSSource(assetFS(t)))
	captured := s.Render(poster.Resolve(poster.Fields{Name: "Early", Country: poster.CountryUSA}))
	s.Render(poster.Resolve(poster.Fields{Name: "Later"}))

	rec := &recorder{}
	e := NewExporter(rec, WithCompositor(compose.New(compose.WithScale(1))))
	res, err := e.ExportFrame(context.Background(), s, captured, "early.png")
	if err != nil {
		t.Fatalf("ExportFrame: %v", err)
	}
	if res.Frame != captured {
		t.Errorf("exported generation %d, want %d", res.Frame.Generation, captured.Generation)
	}
	if res.Download.Filename != "early.png" {
		t.Errorf("filename = %q", res.Download.Filename)
	}

	if _, err := e.ExportFrame(context.Background(), s, nil, "x.png"); !errors.Is(err, errors.ErrCodeNoSurface) {
		t.Errorf("nil frame: err = %v, want NO_SURFACE", err)
	}
}

func TestRenderReplacesFrame(t *testing.T) {
	s := newTestSurface(t, assets.NewFSSource(assetFS(t)))
	a := s.Render(poster.Resolve(poster.Fields{Country: poster.CountryUSA}))
	b := s.Render(poster.Resolve(poster.Fields{Country: poster.CountryCanada}))
	if b.Generation <= a.Generation {
		t.Errorf("generation did not advance: %d -> %d", a.Generation, b.Generation)
	}
	if s.Frame() != b {
		t.Fatal("current frame is not the last rendered one")
	}
	for _, id := range s.Frame().RasterAssets() {
		if id == "flags/usa.png" {
			t.Fatal("stale USA flag in the current frame")
		}
	}
}

func TestRenderCopiesLayers(t *testing.T) {
	s := newTestSurface(t, assets.NewFSSource(assetFS(t)))
	layers := poster.Resolve(poster.Fields{Name: "Ana"})
	f := s.Render(layers)
	layers[2].Text[0] = "changed"
	layers[0].AssetID = "other.png"
	if f.Layers[2].Text[0] != "Ana" || f.Layers[0].AssetID != poster.BackgroundAsset {
		t.Fatal("frame shares memory with the caller's layers")
	}
}

func TestFileDownloader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := FileDownloader{Dir: dir}.Deliver(context.Background(), &Download{
		Filename: "Anita Sharma-poster.png",
		Data:     []byte("png"),
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if path != filepath.Join(dir, "Anita Sharma-poster.png") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png" {
		t.Fatalf("read back = %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the download", len(entries))
	}
}

func TestWebPEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := (WebPEncoder{}).Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Errorf("output does not start with RIFF")
	}
}

func TestReadiness(t *testing.T) {
	src := &gatedSource{inner: assets.NewFSSource(assetFS(t)), gate: make(chan struct{})}
	s := newTestSurface(t, src)
	if _, _, total := s.Readiness(); total != 0 {
		t.Fatalf("empty surface total = %d", total)
	}

	s.Render(poster.Resolve(poster.Fields{Country: poster.CountryCanada}))
	ready, failed, total := s.Readiness()
	if ready != 0 || failed != 0 || total != 2 {
		t.Fatalf("before loads: %d ready, %d failed, %d total", ready, failed, total)
	}

	close(src.gate)
	deadline := time.Now().Add(5 * time.Second)
	for {
		ready, _, total = s.Readiness()
		if ready == total {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("assets never became ready: %d/%d", ready, total)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
