package poster

// Kind identifies the role of a layer.
type Kind int

// Layer kinds.
const (
	KindBackground Kind = iota
	KindNameText
	KindPhoto
	KindFlagLeft
	KindFlagRight
	KindStaticDecoration
)

var kindNames = map[Kind]string{
	KindBackground:       "background",
	KindNameText:         "name_text",
	KindPhoto:            "photo",
	KindFlagLeft:         "flag_left",
	KindFlagRight:        "flag_right",
	KindStaticDecoration: "static_decoration",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AssetID references a raster asset. Bundled assets are paths relative to
// the asset root ("flags/uk.png"); photos carry their PhotoRef verbatim.
type AssetID string

// Point is a position in percent of the surface box (0..100).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Origin selects the point of a layer's own box, as fractions (0..1) of its
// width and height, that is placed on the anchor. {0.5, 0} is top-center.
type Origin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a layer size in percent of the surface width (W) and height (H).
// H = 0 keeps the asset's own aspect ratio.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Transform is applied about the layer's center after scaling: the layer is
// rotated clockwise by RotationDegrees, then reflected about its vertical
// axis when Mirrored is set.
type Transform struct {
	Mirrored        bool    `json:"mirrored"`
	RotationDegrees float64 `json:"rotation_degrees"`
}

// Layer is one visual element of the poster.
type Layer struct {
	Kind      Kind      `json:"kind"`
	AssetID   AssetID   `json:"asset_id,omitempty"`
	Text      []string  `json:"text,omitempty"`
	Anchor    Point     `json:"anchor"`
	Origin    Origin    `json:"origin"`
	Size      Size      `json:"size"`
	Transform Transform `json:"transform"`
	// FontSize is the text height in percent of the surface width.
	FontSize float64 `json:"font_size,omitempty"`
	Z        int     `json:"z"`
}

// IsRaster reports whether the layer draws a raster asset that must finish
// loading before a snapshot.
func (l Layer) IsRaster() bool {
	return l.AssetID != ""
}

// RasterAssets returns the distinct asset ids referenced by layers, in layer
// order.
func RasterAssets(layers []Layer) []AssetID {
	seen := make(map[AssetID]bool, len(layers))
	var ids []AssetID
	for _, l := range layers {
		if !l.IsRaster() || seen[l.AssetID] {
			continue
		}
		seen[l.AssetID] = true
		ids = append(ids, l.AssetID)
	}
	return ids
}
