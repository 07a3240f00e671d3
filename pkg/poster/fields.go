package poster

import (
	"strings"

	"github.com/matzehuels/visaposter/pkg/errors"
)

// PhotoRef is an opaque reference to the uploaded photo: a file path, an
// http(s) URL or a data URI. The empty value means no photo.
type PhotoRef string

// Fields is a snapshot of the form values a poster is built from.
type Fields struct {
	Name    string      `json:"name"`
	Country CountryCode `json:"country"`
	Photo   PhotoRef    `json:"photo,omitempty"`
}

// DefaultDownloadName is used for the download filename when the name is empty.
const DefaultDownloadName = "visa-granted"

// DownloadSuffix is appended to the derived name of every download.
const DownloadSuffix = "-poster"

// TrimmedName returns the name with surrounding whitespace removed.
func (f Fields) TrimmedName() string {
	return strings.TrimSpace(f.Name)
}

// HasPhoto reports whether a photo has been supplied.
func (f Fields) HasPhoto() bool {
	return f.Photo != ""
}

// Validate checks the fields at the input boundary.
func (f Fields) Validate() error {
	if err := errors.ValidateName(f.Name); err != nil {
		return err
	}
	if !f.Country.Valid() {
		return errors.New(errors.ErrCodeInvalidCountry, "invalid country code %d", int(f.Country))
	}
	return errors.ValidatePhotoRef(string(f.Photo))
}

// DownloadName derives the download filename for the given extension
// (without dot): "<trimmed name or visa-granted>-poster.<ext>".
func (f Fields) DownloadName(ext string) string {
	base := f.TrimmedName()
	if base == "" {
		base = DefaultDownloadName
	}
	return errors.SanitizeFilename(base) + DownloadSuffix + "." + ext
}
