// Package metrics provides Prometheus instrumentation for the media-author
// application.
//
// This package defines and exposes various metrics that can be scraped by
// Prometheus to monitor the health, performance, and behavior of the authoring
// pipeline. All metrics are prefixed with "media_author_" to avoid naming
// collisions with other applications.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Track console API request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Pipeline Metrics
//
// Track the authoring pipeline itself:
//   - AnalysesTotal: Counter of media analyses by class and outcome
//   - ThumbnailsResolvedTotal: Counter of resolved thumbnails by source tier
//   - PagesRenderedTotal: Counter of rasterized document pages by resolution
//   - ResourceHandlesLive: Gauge of transient decode handles currently alive
//
// ## Upload Metrics
//
// Monitor commits to Catalogue Storage:
//   - UploadsTotal: Counter of upload attempts by outcome
//   - UploadBytesTotal: Counter of payload bytes transferred
//   - UploadDuration: Histogram of end-to-end upload duration
//
// ## Catalogue Metrics
//
// Gauges fed by the periodic Collector from the local draft store:
//   - CatalogAssets: Assets recorded locally, by class
package metrics
