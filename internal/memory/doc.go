// Package memory configures the Go heap limit and applies backpressure to
// the rasterization workers.
//
// Rasterizing every page of a document at two resolutions is the
// allocation-heavy path of this daemon. ConfigureFromEnv derives GOMEMLIMIT
// from the container memory limit, reserving headroom for FFmpeg, MuPDF and
// libvips native allocations. Monitor samples heap usage and pauses the
// render workers above a critical water mark, resuming once usage falls
// below the high water mark again.
package memory
