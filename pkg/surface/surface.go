package surface

import (
	"sync/atomic"

	"github.com/matzehuels/visaposter/pkg/assets"
	"github.com/matzehuels/visaposter/pkg/poster"
)

// Frame is one rendered state of the surface. It is never modified after
// Render returns it.
type Frame struct {
	Layers     []poster.Layer
	Generation uint64
}

// Empty reports whether the frame has nothing to export.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Layers) == 0
}

// RasterAssets returns the distinct raster asset ids of the frame.
func (f *Frame) RasterAssets() []poster.AssetID {
	if f == nil {
		return nil
	}
	return poster.RasterAssets(f.Layers)
}

// Surface is the fixed-aspect composition area, poster.SurfaceWidth by
// poster.SurfaceHeight logical pixels.
type Surface struct {
	loader *assets.Loader
	frame  atomic.Pointer[Frame]
	gen    atomic.Uint64
}

// New creates an empty surface whose assets are loaded by loader.
func New(loader *assets.Loader) *Surface {
	return &Surface{loader: loader}
}

// Render replaces the surface content with layers and starts loading their
// assets. The previous frame is discarded as a whole, so no layer of it can
// survive into the new one.
func (s *Surface) Render(layers []poster.Layer) *Frame {
	f := &Frame{
		Layers:     cloneLayers(layers),
		Generation: s.gen.Add(1),
	}
	s.frame.Store(f)
	for _, id := range f.RasterAssets() {
		s.loader.Load(string(id))
	}
	return f
}

// Frame returns the current frame, or nil before the first Render.
func (s *Surface) Frame() *Frame {
	return s.frame.Load()
}

// Readiness counts the raster assets of the current frame by load state.
// It never starts a load.
func (s *Surface) Readiness() (ready, failed, total int) {
	ids := s.Frame().RasterAssets()
	for _, id := range ids {
		switch s.loader.Status(string(id)) {
		case assets.StatusReady:
			ready++
		case assets.StatusFailed:
			failed++
		}
	}
	return ready, failed, len(ids)
}

// handles returns one readiness handle per distinct raster asset of f.
func (s *Surface) handles(f *Frame) []*assets.Handle {
	ids := f.RasterAssets()
	hs := make([]*assets.Handle, len(ids))
	for i, id := range ids {
		hs[i] = s.loader.Load(string(id))
	}
	return hs
}

func cloneLayers(layers []poster.Layer) []poster.Layer {
	out := make([]poster.Layer, len(layers))
	copy(out, layers)
	for i := range out {
		if out[i].Text != nil {
			out[i].Text = append([]string(nil), out[i].Text...)
		}
	}
	return out
}
