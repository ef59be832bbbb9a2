// Package pagedoc rasterizes paginated documents (PDF and friends) for
// operator preview.
//
// Loading a document is a two-step acquisition: the rendering engine (MuPDF
// via go-fitz) is loaded lazily on first use, then the document itself is
// opened and parsed for its page count. Every page is rasterized twice, at a
// low-resolution scale for the quick-scan strip and at a high-resolution
// scale for the full viewer. The two passes run concurrently across a small
// worker pool, but the document is not usable until both complete: the
// viewer never has to handle a "page not yet ready" state, at the cost of
// higher load latency for long documents.
//
// When the engine cannot be loaded or the document cannot be parsed, the
// renderer falls back to a synthesized placeholder image carrying the file
// name and size, and the authoring flow continues with a non-fatal notice.
//
// The package also owns the viewer state machine: current page (1-based,
// clamped), zoom level (0.5 to 3.0 in steps of 0.25) and rotation (multiples
// of 90 degrees, wrapping at 360).
package pagedoc
