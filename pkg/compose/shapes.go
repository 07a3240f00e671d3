package compose

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// kappa places cubic Bézier control points for a quarter circle.
const kappa = 0.5522847498

// circlePath adds a circle of radius r centered at (cx, cy) to z.
func circlePath(z *vector.Rasterizer, cx, cy, r float32) {
	k := r * kappa
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
}

// circularFrame crops img to a centered square (object-cover), clips it to a
// circle of diameter d and rings it with a border of the given width.
func circularFrame(img image.Image, d, border int, borderColor color.Color) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, d, d))
	r := float32(d) / 2

	ring := vector.NewRasterizer(d, d)
	circlePath(ring, r, r, r)
	ring.Draw(out, out.Bounds(), image.NewUniform(borderColor), image.Point{})

	inner := d - 2*border
	if inner <= 0 {
		return out
	}
	photo := imaging.Fill(img, inner, inner, imaging.Center, imaging.Lanczos)
	clip := vector.NewRasterizer(d, d)
	circlePath(clip, r, r, float32(inner)/2)
	// Canvas point (border, border) maps to photo origin.
	clip.Draw(out, out.Bounds(), photo, image.Pt(-border, -border))
	return out
}

type shadowSpec struct {
	offsetY float64
	sigma   float64
	opacity float64
}

// overlayShadow draws a blurred silhouette of img's alpha, centered at
// (cx, cy+offsetY).
func overlayShadow(canvas *image.NRGBA, img image.Image, cx, cy float64, s shadowSpec) *image.NRGBA {
	pad := int(math.Ceil(s.sigma * 3))
	b := img.Bounds()
	sil := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*pad, b.Dy()+2*pad))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			sil.SetNRGBA(x-b.Min.X+pad, y-b.Min.Y+pad, color.NRGBA{A: uint8(a >> 8)})
		}
	}
	blurred := sil
	if s.sigma > 0 {
		blurred = imaging.Blur(sil, s.sigma)
	}
	pt := image.Pt(
		int(math.Round(cx-float64(sil.Bounds().Dx())/2)),
		int(math.Round(cy+s.offsetY-float64(sil.Bounds().Dy())/2)),
	)
	return imaging.Overlay(canvas, blurred, pt, s.opacity)
}
