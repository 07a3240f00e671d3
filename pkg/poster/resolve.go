package poster

import "sort"

// =============================================================================
// Surface geometry
// =============================================================================

// Logical surface box. Layer geometry is expressed as percentages of it.
const (
	SurfaceWidth  = 595.0
	SurfaceHeight = 842.0
)

// BackgroundAsset is the poster template image.
const BackgroundAsset AssetID = "images/visa.png"

// Layout constants in logical pixels or percent of the surface box.
const (
	nameTop      = 36.0 // percent
	nameFontPx   = 24.0
	photoTop     = 44.0 // percent
	photoPx      = 208.0
	flagWidthPx  = 140.0
	flagCenterY  = 50.0 // percent
	flagInset    = 9.5  // percent from the nearest side
	flagRotation = 18.0 // degrees clockwise

	captionTop    = 86.0 // percent
	captionFontPx = 14.0
)

// Decoration text lines. They are part of the template and do not depend on
// the fields.
var (
	Caption      = []string{"Congratulations on your visa approval!"}
	ContactBlock = []string{"Visa Granted Consultancy", "hello@visagranted.example", "+1 555 0100"}
)

// ContactURL is encoded in the decoration's QR code.
const ContactURL = "https://visagranted.example"

// Z-order. Each kind gets its own slot so ordering is total. The photo is top
// most so neither the name nor the flags can cover it.
const (
	zBackground = iota
	zDecoration
	zName
	zFlagLeft
	zFlagRight
	zPhoto
)

func pctW(px float64) float64 { return px / SurfaceWidth * 100 }
func pctH(px float64) float64 { return px / SurfaceHeight * 100 }

// =============================================================================
// Resolver
// =============================================================================

// Resolve maps fields to the ordered layer list, sorted by ascending Z.
//
// It is total over valid Fields values: an empty name, a missing photo and
// CountryNone are all valid. It panics if f.Country is outside the declared
// enum.
func Resolve(f Fields) []Layer {
	layers := make([]Layer, 0, 6)

	layers = append(layers, Layer{
		Kind:    KindBackground,
		AssetID: BackgroundAsset,
		Anchor:  Point{X: 0, Y: 0},
		Origin:  Origin{X: 0, Y: 0},
		Size:    Size{W: 100, H: 100},
		Z:       zBackground,
	})

	layers = append(layers, decorationLayer())

	if name := f.TrimmedName(); name != "" {
		layers = append(layers, Layer{
			Kind:     KindNameText,
			Text:     []string{name},
			Anchor:   Point{X: 50, Y: nameTop},
			Origin:   Origin{X: 0.5, Y: 0},
			FontSize: pctW(nameFontPx),
			Z:        zName,
		})
	}

	if pair, ok := FlagsFor(f.Country); ok {
		layers = append(layers, flagLayers(pair)...)
	}

	if f.HasPhoto() {
		layers = append(layers, Layer{
			Kind:    KindPhoto,
			AssetID: AssetID(f.Photo),
			Anchor:  Point{X: 50, Y: photoTop},
			Origin:  Origin{X: 0.5, Y: 0},
			Size:    Size{W: pctW(photoPx), H: pctH(photoPx)},
			Z:       zPhoto,
		})
	}

	sort.SliceStable(layers, func(i, j int) bool { return layers[i].Z < layers[j].Z })
	return layers
}

func decorationLayer() Layer {
	text := make([]string, 0, len(Caption)+len(ContactBlock))
	text = append(text, Caption...)
	text = append(text, ContactBlock...)
	return Layer{
		Kind:     KindStaticDecoration,
		Text:     text,
		Anchor:   Point{X: 50, Y: captionTop},
		Origin:   Origin{X: 0.5, Y: 0},
		Size:     Size{W: 100, H: 100 - captionTop},
		FontSize: pctW(captionFontPx),
		Z:        zDecoration,
	}
}

// flagLayers builds both flags from one pair so they are always replaced
// together.
func flagLayers(pair FlagPair) []Layer {
	w := pctW(flagWidthPx)
	return []Layer{
		{
			Kind:      KindFlagLeft,
			AssetID:   pair.Left,
			Anchor:    Point{X: flagInset, Y: flagCenterY},
			Origin:    Origin{X: 0, Y: 0.5},
			Size:      Size{W: w},
			Transform: Transform{Mirrored: true, RotationDegrees: flagRotation},
			Z:         zFlagLeft,
		},
		{
			Kind:      KindFlagRight,
			AssetID:   pair.Right,
			Anchor:    Point{X: 100 - flagInset, Y: flagCenterY},
			Origin:    Origin{X: 1, Y: 0.5},
			Size:      Size{W: w},
			Transform: Transform{Mirrored: false, RotationDegrees: flagRotation},
			Z:         zFlagRight,
		},
	}
}
