package surface

import (
	"image"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
)

// Encoder turns a snapshot into file bytes.
type Encoder interface {
	// Format is the file extension without dot.
	Format() string
	ContentType() string
	Encode(w io.Writer, img image.Image) error
}

// PNGEncoder encodes PNG. It is the default export encoding.
type PNGEncoder struct {
	Compression png.CompressionLevel
}

func (PNGEncoder) Format() string      { return "png" }
func (PNGEncoder) ContentType() string { return "image/png" }

func (e PNGEncoder) Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: e.Compression}
	return enc.Encode(w, img)
}

// WebPEncoder encodes lossless WebP.
type WebPEncoder struct{}

func (WebPEncoder) Format() string      { return "webp" }
func (WebPEncoder) ContentType() string { return "image/webp" }

func (WebPEncoder) Encode(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}
