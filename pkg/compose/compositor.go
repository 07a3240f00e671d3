package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/visaposter/pkg/errors"
	"github.com/matzehuels/visaposter/pkg/poster"
)

// DefaultScale is the upscaling factor applied to the logical surface box.
const DefaultScale = 2.0

// Compositor draws layer lists. It holds no per-frame state and is safe for
// concurrent use.
type Compositor struct {
	scale       float64
	supersample int
	shadows     bool
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithScale sets the output scale factor relative to the logical box.
func WithScale(scale float64) Option {
	return func(c *Compositor) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

// WithSupersample renders at n times the output scale and downsamples with
// a Catmull-Rom filter. Values below 2 disable supersampling.
func WithSupersample(n int) Option {
	return func(c *Compositor) { c.supersample = n }
}

// WithShadows toggles the flag and photo drop shadows. On by default.
func WithShadows(on bool) Option {
	return func(c *Compositor) { c.shadows = on }
}

// New creates a Compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{scale: DefaultScale, shadows: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scale returns the output scale factor.
func (c *Compositor) Scale() float64 { return c.scale }

// Size returns the output size in pixels.
func (c *Compositor) Size() (w, h int) {
	return canvasSize(c.scale)
}

func canvasSize(scale float64) (int, int) {
	return int(math.Round(poster.SurfaceWidth * scale)), int(math.Round(poster.SurfaceHeight * scale))
}

// Draw rasterizes layers in slice order. images maps every raster layer's
// asset id to its decoded image.
func (c *Compositor) Draw(layers []poster.Layer, images map[poster.AssetID]image.Image) (*image.NRGBA, error) {
	for _, l := range layers {
		if l.IsRaster() && images[l.AssetID] == nil {
			return nil, errors.New(errors.ErrCodeSnapshot,
				"%s layer asset %q is not loaded", l.Kind, shortID(l.AssetID))
		}
	}

	renderScale := c.scale
	if c.supersample >= 2 {
		renderScale *= float64(c.supersample)
	}
	g := newGeom(renderScale)
	canvas := imaging.New(g.w, g.h, color.NRGBA{0xff, 0xff, 0xff, 0xff})

	for _, l := range layers {
		var err error
		switch l.Kind {
		case poster.KindBackground:
			canvas = drawBackground(canvas, g, images[l.AssetID])
		case poster.KindStaticDecoration:
			err = drawDecoration(canvas, g, l)
		case poster.KindNameText:
			err = drawName(canvas, g, l)
		case poster.KindFlagLeft, poster.KindFlagRight:
			canvas = c.drawFlag(canvas, g, l, images[l.AssetID])
		case poster.KindPhoto:
			canvas = c.drawPhoto(canvas, g, l, images[l.AssetID])
		default:
			err = fmt.Errorf("unknown layer kind %d", l.Kind)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSnapshot, err, "draw %s layer", l.Kind)
		}
	}

	if c.supersample >= 2 {
		w, h := canvasSize(c.scale)
		out := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)
		return out, nil
	}
	return canvas, nil
}

// =============================================================================
// Geometry
// =============================================================================

// geom maps logical percentages and pixels to canvas pixels.
type geom struct {
	w, h  int
	scale float64
}

func newGeom(scale float64) geom {
	w, h := canvasSize(scale)
	return geom{w: w, h: h, scale: scale}
}

func (g geom) x(pct float64) float64 { return pct / 100 * float64(g.w) }
func (g geom) y(pct float64) float64 { return pct / 100 * float64(g.h) }
func (g geom) px(logical float64) int {
	return int(math.Round(logical * g.scale))
}

// box returns the top-left corner of a w x h box placed by anchor and origin.
func (g geom) box(l poster.Layer, w, h int) (float64, float64) {
	return g.x(l.Anchor.X) - l.Origin.X*float64(w), g.y(l.Anchor.Y) - l.Origin.Y*float64(h)
}

func shortID(id poster.AssetID) string {
	s := string(id)
	if len(s) > 48 {
		return s[:48] + "..."
	}
	return s
}

// =============================================================================
// Raster layers
// =============================================================================

func drawBackground(canvas *image.NRGBA, g geom, img image.Image) *image.NRGBA {
	cover := imaging.Fill(img, g.w, g.h, imaging.Center, imaging.Lanczos)
	return imaging.Overlay(canvas, cover, image.Pt(0, 0), 1)
}

// drawFlag scales the flag to the layer width, then rotates and mirrors it
// about the center of its untransformed box.
func (c *Compositor) drawFlag(canvas *image.NRGBA, g geom, l poster.Layer, img image.Image) *image.NRGBA {
	w := int(math.Round(g.x(l.Size.W)))
	flag := imaging.Resize(img, w, 0, imaging.Lanczos)
	fh := flag.Bounds().Dy()

	left, top := g.box(l, w, fh)
	cx, cy := left+float64(w)/2, top+float64(fh)/2

	out := flag
	if l.Transform.RotationDegrees != 0 {
		// imaging rotates counter-clockwise for positive angles.
		out = imaging.Rotate(out, -l.Transform.RotationDegrees, color.Transparent)
	}
	if l.Transform.Mirrored {
		out = imaging.FlipH(out)
	}

	if c.shadows {
		canvas = overlayShadow(canvas, out, cx, cy, shadowSpec{
			offsetY: float64(g.px(4)),
			sigma:   float64(g.px(8)) / 2,
			opacity: 0.35,
		})
	}
	return overlayCentered(canvas, out, cx, cy)
}

// Photo frame in logical pixels.
const (
	photoBorder = 4
)

var photoBorderColor = color.NRGBA{0xff, 0xff, 0xff, 0xff}

func (c *Compositor) drawPhoto(canvas *image.NRGBA, g geom, l poster.Layer, img image.Image) *image.NRGBA {
	d := int(math.Round(g.x(l.Size.W)))
	framed := circularFrame(img, d, g.px(photoBorder), photoBorderColor)

	left, top := g.box(l, d, d)
	cx, cy := left+float64(d)/2, top+float64(d)/2
	if c.shadows {
		canvas = overlayShadow(canvas, framed, cx, cy, shadowSpec{
			offsetY: float64(g.px(10)),
			sigma:   float64(g.px(15)) / 2,
			opacity: 0.25,
		})
	}
	return overlayCentered(canvas, framed, cx, cy)
}

// overlayCentered draws img with its center at (cx, cy).
func overlayCentered(canvas *image.NRGBA, img image.Image, cx, cy float64) *image.NRGBA {
	b := img.Bounds()
	pt := image.Pt(
		int(math.Round(cx-float64(b.Dx())/2)),
		int(math.Round(cy-float64(b.Dy())/2)),
	)
	return imaging.Overlay(canvas, img, pt, 1)
}
