// Package assets fetches and decodes the raster assets a poster is built
// from, and provides the readiness join used before a snapshot.
//
// # Sources
//
// A [Source] turns an asset id into raw bytes:
//
//   - [DirSource]: bundled assets under a directory ("images/visa.png",
//     "flags/uk.png")
//   - [BuiltinSource]: generated placeholder art used when no asset
//     directory is configured
//   - [HTTPSource]: http(s) URLs with retry, byte caching and hooks
//   - [DataURISource]: inline "data:image/...;base64," photos
//
// [Mux] dispatches an id to the right source by its form.
//
// # Loading
//
// [Loader] starts one asynchronous load per asset id and returns a [Handle],
// a future that resolves once with a decoded image or an error. Handles are
// memoized so re-rendering the same layers does not refetch; failed handles
// are dropped so a later export retries them.
//
// # Join
//
// [Join] waits until every handle has resolved, optionally bounded by a
// timeout, and returns the decoded images keyed by asset id. It never
// returns early with a partial set.
package assets
