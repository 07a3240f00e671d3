// Package surface owns the composition surface and the export step.
//
// # Surface
//
// A [Surface] holds the current [Frame]: an immutable, generation-numbered
// copy of the layer list last passed to [Surface.Render]. Render swaps the
// frame atomically and starts loading every raster asset the frame
// references. It never blocks on I/O.
//
//	s := surface.New(loader)
//	s.Render(poster.Resolve(fields))
//
// # Export
//
// [Exporter.Export] turns the current frame into a named download:
//
//  1. guard against a missing surface or an empty frame (NO_SURFACE)
//  2. reject a concurrent export (EXPORT_BUSY)
//  3. capture the frame once
//  4. collect one readiness handle per distinct raster asset
//  5. join every handle (ASSET_LOAD, ASSET_TIMEOUT)
//  6. rasterize at the compositor's scale (SNAPSHOT)
//  7. encode (ENCODE) and hand the file to a [Downloader] (DELIVERY)
//
// The snapshot is never taken before the slowest asset has loaded. A failed
// export leaves the surface untouched and may be retried.
package surface
