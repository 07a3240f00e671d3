package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/matzehuels/visaposter/pkg/errors"
)

// DataURISource decodes "data:" URIs. It is how uploaded photos reach the
// loader: the file is read into memory once and carried as a data URI.
type DataURISource struct{}

// Name returns the source name.
func (DataURISource) Name() string { return "data" }

// Fetch decodes the payload of a data URI.
func (DataURISource) Fetch(ctx context.Context, id string) ([]byte, error) {
	_, data, err := ParseDataURI(id)
	return data, err
}

// ParseDataURI splits a data URI into its media type and decoded payload.
// Both base64 and percent-encoded payloads are supported.
func ParseDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidPhoto, "not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidPhoto, "data URI is missing its payload")
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	mediaType, _, _ = strings.Cut(meta, ";")
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidPhoto, err, "decode data URI")
	}
	if len(data) > MaxAssetBytes {
		return "", nil, errors.New(errors.ErrCodeInvalidPhoto, "photo larger than %d bytes", MaxAssetBytes)
	}
	return mediaType, data, nil
}

// EncodeDataURI builds a base64 data URI, sniffing the media type from data.
func EncodeDataURI(data []byte) string {
	var mt string
	switch f := Format(data); f {
	case "":
		mt, _, _ = strings.Cut(http.DetectContentType(data), ";")
	case "tga":
		// No magic number; Format only reports it after a successful decode.
		mt = "image/x-tga"
	default:
		mt = "image/" + f
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ReadPhotoFile reads a photo from disk into a data URI photo reference.
// The bytes are checked to decode as an image so a bad upload is reported
// when it is chosen rather than at export time.
func ReadPhotoFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPhoto, err, "read photo")
	}
	if info.Size() > MaxAssetBytes {
		return "", errors.New(errors.ErrCodeInvalidPhoto, "photo %s is larger than %d bytes", path, MaxAssetBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPhoto, err, "read photo")
	}
	if _, err := Decode(data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPhoto, err, "photo %s", path)
	}
	return EncodeDataURI(data), nil
}

// PhotoRefFor turns user input into a photo reference: data URIs and http(s)
// URLs are kept, anything else is treated as a local file path.
func PhotoRefFor(input string) (string, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return "", nil
	case strings.HasPrefix(input, "data:"),
		strings.HasPrefix(input, "http://"),
		strings.HasPrefix(input, "https://"):
		if err := errors.ValidatePhotoRef(input); err != nil {
			return "", err
		}
		return input, nil
	}
	ref, err := ReadPhotoFile(input)
	if err != nil {
		return "", fmt.Errorf("photo: %w", err)
	}
	return ref, nil
}
