// Package thumbnail produces and selects the still-image representation of a
// media asset.
//
// Thumbnails can come from four sources, in strict priority order:
//
//  1. A cover file uploaded by the operator (always wins, even when it
//     arrives after an auto-generated frame)
//  2. An external thumbnail reference for assets identified by a canonical
//     identifier rather than an uploaded file
//  3. An auto-generated video frame capture (ffmpeg, 1 second in, clamped
//     to the clip duration, fit to a 320px-wide raster)
//  4. A previously persisted thumbnail from the catalogue (edit flow)
//
// The Resolver enforces the order at assignment time: derivation steps run
// concurrently and may settle in any interleaving, but a later-arriving
// lower-priority result never overwrites an already-set higher-priority one.
//
// Cover images are decoded through libvips when available (decode-time
// shrinking keeps memory flat for large covers) with disintegration/imaging
// as the fallback path.
package thumbnail
