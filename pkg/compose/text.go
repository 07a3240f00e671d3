package compose

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/visaposter/pkg/fonts"
	"github.com/matzehuels/visaposter/pkg/poster"
)

var (
	nameColor    = color.NRGBA{0x1e, 0x3a, 0x8a, 0xff} // blue-900
	captionColor = color.NRGBA{0x0a, 0x31, 0x61, 0xff}
	contactColor = color.NRGBA{0x37, 0x41, 0x51, 0xff}
)

// Decoration QR code, logical pixels.
const (
	qrSize  = 64
	qrInset = 28
)

func drawName(canvas *image.NRGBA, g geom, l poster.Layer) error {
	size := g.x(l.FontSize)
	face, err := fonts.Face(fonts.Bold, size)
	if err != nil {
		return err
	}
	defer face.Close()

	y := g.y(l.Anchor.Y)
	for _, line := range l.Text {
		y = drawLine(canvas, face, nameColor, line, g.x(l.Anchor.X), y)
	}
	return nil
}

// drawDecoration draws the caption in bold, the contact block below it and a
// QR code for the contact link at the right edge.
func drawDecoration(canvas *image.NRGBA, g geom, l poster.Layer) error {
	size := g.x(l.FontSize)
	bold, err := fonts.Face(fonts.Bold, size)
	if err != nil {
		return err
	}
	defer bold.Close()
	regular, err := fonts.Face(fonts.Regular, size*0.85)
	if err != nil {
		return err
	}
	defer regular.Close()

	y := g.y(l.Anchor.Y)
	cx := g.x(l.Anchor.X)
	for i, line := range l.Text {
		if i < len(poster.Caption) {
			y = drawLine(canvas, bold, captionColor, line, cx, y)
			continue
		}
		y = drawLine(canvas, regular, contactColor, line, cx, y)
	}

	qr, err := qrcode.New(poster.ContactURL, qrcode.Medium)
	if err != nil {
		return err
	}
	qr.DisableBorder = true
	side := g.px(qrSize)
	code := imaging.Resize(qr.Image(side), side, side, imaging.NearestNeighbor)
	pt := image.Pt(g.w-g.px(qrInset)-side, int(math.Round(g.y(l.Anchor.Y))))
	draw.Draw(canvas, code.Bounds().Add(pt), code, image.Point{}, draw.Over)
	return nil
}

// drawLine draws s horizontally centered on cx with its top at y and returns
// the top of the next line.
func drawLine(canvas *image.NRGBA, face font.Face, c color.Color, s string, cx, y float64) float64 {
	m := face.Metrics()
	width := font.MeasureString(face, s)
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(cx*64) - width/2,
			Y: fixed.Int26_6(y*64) + m.Ascent,
		},
	}
	d.DrawString(s)
	return y + float64(m.Height)/64
}
