package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/visaposter/pkg/errors"
	"github.com/matzehuels/visaposter/pkg/poster"
)

var (
	bgColor    = color.NRGBA{0x20, 0xa0, 0x20, 0xff}
	leftColor  = color.NRGBA{0xff, 0x00, 0x00, 0xff}
	rightColor = color.NRGBA{0x00, 0x00, 0xff, 0xff}
	photoColor = color.NRGBA{0xff, 0xc0, 0x00, 0xff}
)

// splitFlag is red on its left half and blue on its right half.
func splitFlag() image.Image {
	img := imaging.New(300, 200, rightColor)
	return imaging.Paste(img, imaging.New(150, 200, leftColor), image.Pt(0, 0))
}

func testImages(f poster.Fields) map[poster.AssetID]image.Image {
	images := map[poster.AssetID]image.Image{
		poster.BackgroundAsset: imaging.New(60, 85, bgColor),
	}
	if pair, ok := poster.FlagsFor(f.Country); ok {
		images[pair.Left] = splitFlag()
	}
	if f.HasPhoto() {
		images[poster.AssetID(f.Photo)] = imaging.New(50, 80, photoColor)
	}
	return images
}

func near(a, b color.NRGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) < 24 && d(a.G, b.G) < 24 && d(a.B, b.B) < 24
}

func TestDrawSize(t *testing.T) {
	f := poster.Fields{}
	tests := []struct {
		scale float64
		w, h  int
	}{
		{1, 595, 842},
		{2, 1190, 1684},
	}
	for _, tt := range tests {
		img, err := New(WithScale(tt.scale)).Draw(poster.Resolve(f), testImages(f))
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if b := img.Bounds(); b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("scale %v size = %dx%d, want %dx%d", tt.scale, b.Dx(), b.Dy(), tt.w, tt.h)
		}
	}
}

func TestDrawDefaultScale(t *testing.T) {
	if w, h := New().Size(); w != 1190 || h != 1684 {
		t.Fatalf("default size = %dx%d, want 1190x1684", w, h)
	}
}

func TestDrawMissingAsset(t *testing.T) {
	f := poster.Fields{Country: poster.CountryUK}
	images := testImages(f)
	delete(images, "flags/uk.png")
	_, err := New().Draw(poster.Resolve(f), images)
	if !errors.Is(err, errors.ErrCodeSnapshot) {
		t.Fatalf("err = %v, want SNAPSHOT", err)
	}
}

func TestDrawLayers(t *testing.T) {
	f := poster.Fields{Name: "Anita Sharma", Country: poster.CountryUK, Photo: "photo.png"}
	img, err := New(WithScale(1), WithShadows(false)).Draw(poster.Resolve(f), testImages(f))
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"background corner", 5, 5, bgColor},
		// Photo circle center: top 44% plus half of 208px.
		{"photo center", 297, 370 + 104, photoColor},
		// 4px white border at the top of the circle.
		{"photo border", 297, 370 + 2, color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		// Left flag is mirrored: its left half shows the source's right half.
		{"left flag mirrored", 56 + 70 - 30, 421, rightColor},
		{"right flag unmirrored", 538 - 70 - 30, 421, leftColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := img.NRGBAAt(tt.x, tt.y)
			if !near(got, tt.want) {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDrawNameText(t *testing.T) {
	base := poster.Fields{}
	named := poster.Fields{Name: "Anita Sharma"}
	c := New(WithScale(1))

	without, err := c.Draw(poster.Resolve(base), testImages(base))
	if err != nil {
		t.Fatal(err)
	}
	with, err := c.Draw(poster.Resolve(named), testImages(named))
	if err != nil {
		t.Fatal(err)
	}

	// The name band starts at 36% and is about one line high.
	top := 303
	changed := 0
	for y := top; y < top+30; y++ {
		for x := 200; x < 400; x++ {
			if without.NRGBAAt(x, y) != with.NRGBAAt(x, y) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Fatal("name text did not change any pixel in the name band")
	}
}

func TestDrawSupersample(t *testing.T) {
	f := poster.Fields{Country: poster.CountryUSA}
	img, err := New(WithScale(1), WithSupersample(2)).Draw(poster.Resolve(f), testImages(f))
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 595 || b.Dy() != 842 {
		t.Errorf("size = %v, want 595x842", b)
	}
	if got := img.NRGBAAt(5, 5); !near(got, bgColor) {
		t.Errorf("corner = %v, want background", got)
	}
}

func TestCircularFrame(t *testing.T) {
	out := circularFrame(imaging.New(10, 10, photoColor), 100, 4, color.White)
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want transparent", a)
	}
	if got := out.NRGBAAt(50, 50); !near(got, photoColor) {
		t.Errorf("center = %v, want photo", got)
	}
	if got := out.NRGBAAt(50, 1); !near(got, color.NRGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("top edge = %v, want border", got)
	}
}
