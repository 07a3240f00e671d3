// Package poster defines the poster data model and the layout resolver.
//
// # Overview
//
// A poster is described by three user-supplied [Fields]: a name, a country
// and an optional photo. [Resolve] maps a Fields value to the ordered list of
// visual [Layer]s that make up the poster:
//
//	layers := poster.Resolve(poster.Fields{
//	    Name:    "Anita Sharma",
//	    Country: poster.CountryUK,
//	    Photo:   "photos/anita.jpg",
//	})
//	// background, decoration, name, left flag, right flag, photo
//
// Resolve is pure and total: it performs no I/O, never fails for a valid
// Fields value and returns structurally identical lists for identical input.
// Layer lists are recomputed from scratch on every field change; they are
// never cached or diffed.
//
// # Geometry
//
// All geometry is expressed in percentages of a fixed logical surface box of
// [SurfaceWidth] x [SurfaceHeight] logical pixels (the template's native
// size), so layouts are resolution-independent. A layer's [Anchor] is a point
// in that box and its [Origin] says which point of the layer's own box sits
// on the anchor.
//
// # Flags
//
// Country flags come from a build-time constant table ([FlagsFor]). Both
// flags share the same rotation; only the left flag is mirrored, so that both
// poles point toward the photo circle.
package poster
