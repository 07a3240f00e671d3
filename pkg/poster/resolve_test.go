package poster

import (
	"reflect"
	"strings"
	"testing"
)

func kinds(layers []Layer) []Kind {
	out := make([]Kind, len(layers))
	for i, l := range layers {
		out[i] = l.Kind
	}
	return out
}

func findKind(layers []Layer, k Kind) (Layer, bool) {
	for _, l := range layers {
		if l.Kind == k {
			return l, true
		}
	}
	return Layer{}, false
}

func TestResolveFullPoster(t *testing.T) {
	layers := Resolve(Fields{Name: "Anita Sharma", Country: CountryUK, Photo: "photos/anita.jpg"})

	want := []Kind{KindBackground, KindStaticDecoration, KindNameText, KindFlagLeft, KindFlagRight, KindPhoto}
	if got := kinds(layers); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}

	left, _ := findKind(layers, KindFlagLeft)
	right, _ := findKind(layers, KindFlagRight)
	if left.AssetID != "flags/uk.png" || right.AssetID != "flags/uk.png" {
		t.Errorf("flag assets = %q, %q, want flags/uk.png", left.AssetID, right.AssetID)
	}

	name, _ := findKind(layers, KindNameText)
	if len(name.Text) != 1 || name.Text[0] != "Anita Sharma" {
		t.Errorf("name text = %v", name.Text)
	}

	photo, _ := findKind(layers, KindPhoto)
	if photo.AssetID != "photos/anita.jpg" {
		t.Errorf("photo asset = %q", photo.AssetID)
	}

	ids := RasterAssets(layers)
	wantIDs := []AssetID{BackgroundAsset, "flags/uk.png", "photos/anita.jpg"}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Errorf("RasterAssets = %v, want %v", ids, wantIDs)
	}
}

func TestResolveMinimalPoster(t *testing.T) {
	layers := Resolve(Fields{})
	want := []Kind{KindBackground, KindStaticDecoration}
	if got := kinds(layers); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
}

func TestResolveNoFlagsForNone(t *testing.T) {
	layers := Resolve(Fields{Name: "x", Country: CountryNone, Photo: "p.png"})
	for _, l := range layers {
		if l.Kind == KindFlagLeft || l.Kind == KindFlagRight {
			t.Fatalf("unexpected flag layer %v", l.Kind)
		}
	}
}

func TestResolveFlagSymmetry(t *testing.T) {
	for _, c := range Countries() {
		t.Run(c.String(), func(t *testing.T) {
			layers := Resolve(Fields{Country: c})
			var left, right []Layer
			for _, l := range layers {
				switch l.Kind {
				case KindFlagLeft:
					left = append(left, l)
				case KindFlagRight:
					right = append(right, l)
				}
			}
			if len(left) != 1 || len(right) != 1 {
				t.Fatalf("got %d left and %d right flags, want 1 each", len(left), len(right))
			}
			if !left[0].Transform.Mirrored {
				t.Error("left flag not mirrored")
			}
			if right[0].Transform.Mirrored {
				t.Error("right flag mirrored")
			}
			if left[0].Transform.RotationDegrees != right[0].Transform.RotationDegrees {
				t.Errorf("rotations differ: %v vs %v",
					left[0].Transform.RotationDegrees, right[0].Transform.RotationDegrees)
			}
			if left[0].Transform.RotationDegrees == 0 {
				t.Error("flags not rotated")
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	f := Fields{Name: "  Li Wei ", Country: CountryNZ, Photo: "data:image/png;base64,AAAA"}
	a, b := Resolve(f), Resolve(f)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Resolve not deterministic:\n%v\n%v", a, b)
	}
}

func TestResolveCountrySwitch(t *testing.T) {
	f := Fields{Name: "x", Country: CountryUSA}
	_ = Resolve(f)
	f.Country = CountryCanada
	for _, l := range Resolve(f) {
		if strings.Contains(string(l.AssetID), "usa") {
			t.Fatalf("stale USA asset %q after switching to Canada", l.AssetID)
		}
	}
	f.Country = CountryNone
	for _, l := range Resolve(f) {
		if l.Kind == KindFlagLeft || l.Kind == KindFlagRight {
			t.Fatalf("flag layer %v left after switching to None", l.Kind)
		}
	}
}

func TestResolveBlankName(t *testing.T) {
	for _, name := range []string{"", " ", "\t\n  "} {
		if _, ok := findKind(Resolve(Fields{Name: name}), KindNameText); ok {
			t.Errorf("name %q produced a name layer", name)
		}
	}
}

func TestResolveZOrder(t *testing.T) {
	layers := Resolve(Fields{Name: "n", Country: CountryAustralia, Photo: "p.png"})
	seen := map[int]bool{}
	for i, l := range layers {
		if seen[l.Z] {
			t.Errorf("duplicate z %d", l.Z)
		}
		seen[l.Z] = true
		if i > 0 && layers[i-1].Z >= l.Z {
			t.Errorf("layers not sorted by z at %d", i)
		}
	}
	photo, _ := findKind(layers, KindPhoto)
	for _, l := range layers {
		if l.Kind != KindPhoto && l.Z >= photo.Z {
			t.Errorf("%v (z %d) is not below the photo (z %d)", l.Kind, l.Z, photo.Z)
		}
	}
	if layers[0].Kind != KindBackground || layers[0].Z != 0 {
		t.Errorf("first layer = %v z %d, want background z 0", layers[0].Kind, layers[0].Z)
	}
}

func TestResolveGeometry(t *testing.T) {
	layers := Resolve(Fields{Name: "n", Country: CountryUSA, Photo: "p.png"})
	left, _ := findKind(layers, KindFlagLeft)
	right, _ := findKind(layers, KindFlagRight)
	if left.Anchor.X != 9.5 || right.Anchor.X != 90.5 {
		t.Errorf("flag anchors = %v, %v", left.Anchor.X, right.Anchor.X)
	}
	if left.Anchor.Y != 50 || right.Anchor.Y != 50 {
		t.Errorf("flag vertical centers = %v, %v", left.Anchor.Y, right.Anchor.Y)
	}
	photo, _ := findKind(layers, KindPhoto)
	if photo.Anchor != (Point{X: 50, Y: 44}) {
		t.Errorf("photo anchor = %v", photo.Anchor)
	}
	name, _ := findKind(layers, KindNameText)
	if name.Anchor != (Point{X: 50, Y: 36}) {
		t.Errorf("name anchor = %v", name.Anchor)
	}
}

func TestResolvePanicsOnInvalidCountry(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range country")
		}
	}()
	Resolve(Fields{Country: CountryCode(42)})
}

func TestFlagsForReturnsCopy(t *testing.T) {
	pair, _ := FlagsFor(CountryUSA)
	pair.Left = "tampered.png"
	again, _ := FlagsFor(CountryUSA)
	if again.Left != "flags/usa.png" {
		t.Fatalf("flag table mutated through accessor: %q", again.Left)
	}
}

func TestFlagTableTotal(t *testing.T) {
	for _, c := range Countries() {
		pair, ok := FlagsFor(c)
		if !ok || pair.Left == "" || pair.Right == "" {
			t.Errorf("%v has no flag pair", c)
		}
	}
	if _, ok := FlagsFor(CountryNone); ok {
		t.Error("CountryNone has a flag pair")
	}
}
