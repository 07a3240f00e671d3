package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/visaposter/pkg/cache"
)

// BuiltinSource generates simple placeholder art for the bundled asset ids,
// so posters can be composed without an asset directory. Flags are drawn as
// colored bands in each country's palette.
type BuiltinSource struct{}

// Name returns the source name.
func (BuiltinSource) Name() string { return "builtin" }

// Placeholder sizes in pixels. The background matches the surface at 2x.
const (
	builtinBgW   = 1190
	builtinBgH   = 1684
	builtinFlagW = 300
	builtinFlagH = 200
)

type bandFlag struct {
	colors   []color.NRGBA
	vertical bool
}

var (
	navy  = color.NRGBA{0x0a, 0x31, 0x61, 0xff}
	red   = color.NRGBA{0xc8, 0x10, 0x2e, 0xff}
	white = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	green = color.NRGBA{0x00, 0x84, 0x3d, 0xff}
	gold  = color.NRGBA{0xd4, 0xaf, 0x37, 0xff}
	cream = color.NRGBA{0xfb, 0xf6, 0xe9, 0xff}
)

var builtinFlags = map[string]bandFlag{
	"flags/usa.png":    {colors: []color.NRGBA{red, white, red, white, navy}},
	"flags/uk.png":     {colors: []color.NRGBA{navy, white, red, white, navy}},
	"flags/aus.png":    {colors: []color.NRGBA{navy, white, navy}},
	"flags/nz.png":     {colors: []color.NRGBA{navy, red, navy}},
	"flags/canada.png": {colors: []color.NRGBA{red, white, red}, vertical: true},
}

// Fetch renders the placeholder for id as PNG.
func (BuiltinSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var img image.Image
	switch {
	case id == "images/visa.png":
		img = builtinBackground()
	case builtinFlags[id].colors != nil:
		img = builtinFlag(builtinFlags[id])
	default:
		return nil, fmt.Errorf("%s: %w", id, cache.ErrNotFound)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func builtinBackground() image.Image {
	img := imaging.New(builtinBgW, builtinBgH, navy)
	frame := func(inset int, c color.NRGBA) {
		r := image.Rect(inset, inset, builtinBgW-inset, builtinBgH-inset)
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	frame(24, gold)
	frame(34, cream)
	// Header band behind the title area.
	draw.Draw(img, image.Rect(34, 120, builtinBgW-34, 420), image.NewUniform(green), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(34, 410, builtinBgW-34, 420), image.NewUniform(gold), image.Point{}, draw.Src)
	return img
}

func builtinFlag(f bandFlag) image.Image {
	img := imaging.New(builtinFlagW, builtinFlagH, white)
	n := len(f.colors)
	for i, c := range f.colors {
		var r image.Rectangle
		if f.vertical {
			r = image.Rect(i*builtinFlagW/n, 0, (i+1)*builtinFlagW/n, builtinFlagH)
		} else {
			r = image.Rect(0, i*builtinFlagH/n, builtinFlagW, (i+1)*builtinFlagH/n)
		}
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	return img
}
