package poster

import (
	"fmt"
	"strings"

	"github.com/matzehuels/visaposter/pkg/errors"
)

// CountryCode selects the flag pair shown on the poster.
type CountryCode int

// Supported countries. CountryNone means no flags are shown.
const (
	CountryNone CountryCode = iota
	CountryUSA
	CountryUK
	CountryAustralia
	CountryNZ
	CountryCanada

	countryCount // sentinel, keep last
)

var countryNames = [countryCount]string{
	CountryNone:      "None",
	CountryUSA:       "USA",
	CountryUK:        "UK",
	CountryAustralia: "Australia",
	CountryNZ:        "NZ",
	CountryCanada:    "Canada",
}

// String returns the dropdown value of the country.
func (c CountryCode) String() string {
	if !c.Valid() {
		return fmt.Sprintf("CountryCode(%d)", int(c))
	}
	return countryNames[c]
}

// Valid reports whether c is one of the declared country codes.
func (c CountryCode) Valid() bool {
	return c >= CountryNone && c < countryCount
}

// Countries returns every selectable country (excluding CountryNone) in
// dropdown order.
func Countries() []CountryCode {
	return []CountryCode{CountryUSA, CountryUK, CountryAustralia, CountryNZ, CountryCanada}
}

// ParseCountry converts a dropdown value to a CountryCode.
// Matching is case-insensitive. "" and "none" select CountryNone; "new
// zealand" is accepted for NZ.
func ParseCountry(s string) (CountryCode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CountryNone, nil
	case "usa", "us":
		return CountryUSA, nil
	case "uk", "gb":
		return CountryUK, nil
	case "australia", "au":
		return CountryAustralia, nil
	case "nz", "new zealand":
		return CountryNZ, nil
	case "canada", "ca":
		return CountryCanada, nil
	}
	return CountryNone, errors.New(errors.ErrCodeInvalidCountry,
		"unknown country %q (must be one of: USA, UK, Australia, NZ, Canada)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c CountryCode) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidCountry, "invalid country code %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CountryCode) UnmarshalText(text []byte) error {
	parsed, err := ParseCountry(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
