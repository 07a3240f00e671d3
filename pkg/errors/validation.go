package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength is the longest name accepted for the poster name field.
const MaxNameLength = 120

// ValidateName validates the free-text name field.
//
// An empty or whitespace-only name is valid (the name layer is simply
// omitted). Rejected are names longer than [MaxNameLength] runes, names
// containing control characters and names that are not valid UTF-8.
func ValidateName(name string) error {
	if !utf8.ValidString(name) {
		return New(ErrCodeInvalidName, "name is not valid UTF-8")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePhotoRef validates a photo reference before it is handed to the
// asset loader. References are file paths, http(s) URLs or data URIs.
func ValidatePhotoRef(ref string) error {
	if ref == "" {
		return nil
	}
	if strings.ContainsRune(ref, '\x00') {
		return New(ErrCodeInvalidPhoto, "photo reference contains a null byte")
	}
	if strings.HasPrefix(ref, "data:") {
		if !strings.HasPrefix(ref, "data:image/") {
			return New(ErrCodeInvalidPhoto, "photo data URI must have an image media type")
		}
		if !strings.Contains(ref, ",") {
			return New(ErrCodeInvalidPhoto, "photo data URI is missing its payload")
		}
	}
	return nil
}

// SanitizeFilename replaces characters that would escape the output
// directory or break common filesystems. Spaces are kept.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return "_"
	}
	return out
}
