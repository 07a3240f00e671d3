package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// The tga package registers itself with image.RegisterFormat under an empty
// magic string, which matches every input. image.Decode (and imaging.Decode
// on top of it) is therefore unusable once tga is linked, so formats are
// picked here by their magic bytes and decoded directly.

type decoder struct {
	format string
	magic  func([]byte) bool
	decode func(io.Reader) (image.Image, error)
}

var decoders = []decoder{
	{"png", prefix("\x89PNG\r\n\x1a\n"), png.Decode},
	{"jpeg", prefix("\xff\xd8"), jpeg.Decode},
	{"gif", func(b []byte) bool { return hasPrefix(b, "GIF87a") || hasPrefix(b, "GIF89a") }, gif.Decode},
	{"webp", func(b []byte) bool { return hasPrefix(b, "RIFF") && len(b) >= 12 && string(b[8:12]) == "WEBP" }, webp.Decode},
	{"bmp", prefix("BM"), bmp.Decode},
	{"tiff", func(b []byte) bool { return hasPrefix(b, "II*\x00") || hasPrefix(b, "MM\x00*") }, tiff.Decode},
}

func prefix(p string) func([]byte) bool {
	return func(b []byte) bool { return hasPrefix(b, p) }
}

func hasPrefix(b []byte, p string) bool {
	return len(b) >= len(p) && string(b[:len(p)]) == p
}

// Format names the encoding of data, or "tga" when no known magic number is
// present and the bytes decode as TGA. It returns "" otherwise.
func Format(data []byte) string {
	for _, d := range decoders {
		if d.magic(data) {
			return d.format
		}
	}
	if _, err := tga.Decode(bytes.NewReader(data)); err == nil {
		return "tga"
	}
	return ""
}

// Decode decodes an encoded image, applying its EXIF orientation. PNG, JPEG,
// GIF, WebP, BMP and TIFF are recognised by magic number; anything else is
// tried as TGA, which has none.
func Decode(data []byte) (image.Image, error) {
	for _, d := range decoders {
		if !d.magic(data) {
			continue
		}
		img, err := d.decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.format, err)
		}
		if d.format == "jpeg" || d.format == "tiff" {
			img = orient(img, data)
		}
		return img, nil
	}
	img, err := tga.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", image.ErrFormat, err)
	}
	return img, nil
}

// orient applies the EXIF orientation tag of data to img. Images without
// readable EXIF data are returned unchanged.
func orient(img image.Image, data []byte) image.Image {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return img
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	o, err := tag.Int(0)
	if err != nil {
		return img
	}
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
