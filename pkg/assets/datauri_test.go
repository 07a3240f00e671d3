package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/visaposter/pkg/errors"
)

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantType  string
		wantData  string
		wantError bool
	}{
		{"base64", "data:image/png;base64,aGVsbG8=", "image/png", "hello", false},
		{"base64 unpadded", "data:image/png;base64,aGVsbG8", "image/png", "hello", false},
		{"percent", "data:image/svg+xml,%3Csvg%3E", "image/svg+xml", "<svg>", false},
		{"default type", "data:,x", "text/plain", "x", false},
		{"no payload", "data:image/png;base64", "", "", true},
		{"not data", "http://x", "", "", true},
		{"bad base64", "data:image/png;base64,!!!", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, data, err := ParseDataURI(tt.uri)
			if (err != nil) != tt.wantError {
				t.Fatalf("err = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				if !errors.Is(err, errors.ErrCodeInvalidPhoto) {
					t.Errorf("code = %v, want INVALID_PHOTO", errors.GetCode(err))
				}
				return
			}
			if mt != tt.wantType || string(data) != tt.wantData {
				t.Errorf("got (%q, %q), want (%q, %q)", mt, data, tt.wantType, tt.wantData)
			}
		})
	}
}

func TestEncodeDataURIRoundTrip(t *testing.T) {
	raw := pngBytes(t, 4, 4)
	uri := EncodeDataURI(raw)
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("uri prefix = %q", uri[:30])
	}
	mt, data, err := ParseDataURI(uri)
	if err != nil || mt != "image/png" || string(data) != string(raw) {
		t.Fatalf("round trip failed: %q %v", mt, err)
	}
}

func TestReadPhotoFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "me.png")
	if err := os.WriteFile(good, pngBytes(t, 8, 8), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	ref, err := ReadPhotoFile(good)
	if err != nil || !strings.HasPrefix(ref, "data:image/png;base64,") {
		t.Fatalf("ReadPhotoFile = %.40q, %v", ref, err)
	}
	if _, err := ReadPhotoFile(bad); !errors.Is(err, errors.ErrCodeInvalidPhoto) {
		t.Errorf("bad photo err = %v", err)
	}
	if _, err := ReadPhotoFile(filepath.Join(dir, "missing.png")); !errors.Is(err, errors.ErrCodeInvalidPhoto) {
		t.Errorf("missing photo err = %v", err)
	}
}

func TestPhotoRefFor(t *testing.T) {
	if ref, err := PhotoRefFor("  "); err != nil || ref != "" {
		t.Errorf("blank input = %q, %v", ref, err)
	}
	if ref, err := PhotoRefFor("https://cdn.example/me.jpg"); err != nil || ref != "https://cdn.example/me.jpg" {
		t.Errorf("url input = %q, %v", ref, err)
	}
	if _, err := PhotoRefFor("data:text/plain,hi"); err == nil {
		t.Error("expected error for non-image data URI")
	}
}
