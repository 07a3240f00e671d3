package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/visaposter/pkg/errors"
	"github.com/matzehuels/visaposter/pkg/poster"
	"github.com/matzehuels/visaposter/pkg/surface"
)

// LayoutDocument is the JSON form of a resolved poster.
type LayoutDocument struct {
	Fields  poster.Fields  `json:"fields"`
	Surface SurfaceSize    `json:"surface"`
	Layers  []poster.Layer `json:"layers"`
}

// SurfaceSize is the logical surface box.
type SurfaceSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MarshalLayout renders fields and layers as indented JSON. Inline data URIs
// are abbreviated so the document stays readable.
func MarshalLayout(fields poster.Fields, layers []poster.Layer) ([]byte, error) {
	doc := LayoutDocument{
		Fields:  fields,
		Surface: SurfaceSize{Width: poster.SurfaceWidth, Height: poster.SurfaceHeight},
		Layers:  make([]poster.Layer, len(layers)),
	}
	doc.Fields.Photo = poster.PhotoRef(abbreviate(string(fields.Photo)))
	for i, l := range layers {
		l.AssetID = poster.AssetID(abbreviate(string(l.AssetID)))
		doc.Layers[i] = l
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func abbreviate(ref string) string {
	head, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasPrefix(head, "data:") {
		return ref
	}
	return fmt.Sprintf("%s,<%d bytes>", head, len(payload))
}

func (r *Runner) exportLayout(ctx context.Context, s *surface.Surface, fields poster.Fields, filename string) (File, error) {
	frame := s.Frame()
	if frame.Empty() {
		return File{}, errors.New(errors.ErrCodeNoSurface, "nothing has been rendered")
	}
	data, err := MarshalLayout(fields, frame.Layers)
	if err != nil {
		return File{}, errors.Wrap(errors.ErrCodeEncode, err, "encode layout")
	}
	path, err := r.Downloader.Deliver(ctx, &surface.Download{
		Filename:    filename,
		ContentType: "application/json",
		Data:        data,
	})
	if err != nil {
		return File{}, err
	}
	return File{Format: FormatJSON, Path: path, Size: len(data)}, nil
}
