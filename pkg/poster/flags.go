package poster

import "fmt"

// FlagPair holds the asset ids of the two flags shown for a country.
type FlagPair struct {
	Left  AssetID
	Right AssetID
}

// flagTable is the build-time country to flag mapping. Every code except
// CountryNone has exactly one entry. It is never written after init.
var flagTable = [countryCount]FlagPair{
	CountryUSA:       {Left: "flags/usa.png", Right: "flags/usa.png"},
	CountryUK:        {Left: "flags/uk.png", Right: "flags/uk.png"},
	CountryAustralia: {Left: "flags/aus.png", Right: "flags/aus.png"},
	CountryNZ:        {Left: "flags/nz.png", Right: "flags/nz.png"},
	CountryCanada:    {Left: "flags/canada.png", Right: "flags/canada.png"},
}

// FlagsFor returns the flag pair for c. The bool is false for CountryNone.
// It panics for a code outside the declared enum, which can only come from
// a programming error since all external input goes through ParseCountry.
func FlagsFor(c CountryCode) (FlagPair, bool) {
	if !c.Valid() {
		panic(fmt.Sprintf("poster: country code %d is not in the flag table", int(c)))
	}
	if c == CountryNone {
		return FlagPair{}, false
	}
	return flagTable[c], true
}
