// Package fonts provides the fonts used for poster text layers.
//
// The Go font family from golang.org/x/image is compiled into the binary,
// so text rendering needs no font files on disk.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Weight selects a face of the embedded family.
type Weight int

const (
	Regular Weight = iota
	Bold
)

// Parsed fonts are shared; faces are not (font.Face is not safe for
// concurrent use) and are created per call.
var (
	parseOnce sync.Once
	parsed    map[Weight]*opentype.Font
	parseErr  error
)

func load() error {
	parseOnce.Do(func() {
		parsed = make(map[Weight]*opentype.Font, 2)
		for w, data := range map[Weight][]byte{Regular: goregular.TTF, Bold: gobold.TTF} {
			f, err := opentype.Parse(data)
			if err != nil {
				parseErr = fmt.Errorf("parse font weight %d: %w", w, err)
				return
			}
			parsed[w] = f
		}
	})
	return parseErr
}

// Face returns a new face of the given weight at size pixels (72 DPI, so
// points equal pixels). The caller should Close it.
func Face(w Weight, size float64) (font.Face, error) {
	if err := load(); err != nil {
		return nil, err
	}
	f, ok := parsed[w]
	if !ok {
		return nil, fmt.Errorf("unknown font weight %d", w)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
