// Package handlers provides HTTP request handlers for the authoring
// console API.
//
// It includes handlers for:
//   - Asset selection and the preview lifecycle
//   - Cover selection (custom, external and generated)
//   - Metadata editing sessions
//   - Page-view navigation and rendered page serving
//   - Commit, upload progress and cancellation
//   - Catalog listing, upload history and stats
//   - Health checks, version and metrics
package handlers
