// Package compose rasterizes a resolved poster layer list into a bitmap.
//
// A [Compositor] draws layers in order onto a canvas sized to the logical
// surface box times its scale factor:
//
//	c := compose.New(compose.WithScale(2))
//	img, err := c.Draw(layers, images)
//
// Every raster layer's image must be present in images; a missing image is
// reported as a SNAPSHOT error instead of leaving a blank region.
//
// Rendering follows the poster template: the background covers the whole
// box, flags are scaled to width, rotated, optionally mirrored and given a
// soft drop shadow, the photo is cropped to a square, clipped to a circle and
// framed with a white border. Text layers are drawn with the embedded Go
// fonts and the decoration carries a QR code for the contact link.
package compose
