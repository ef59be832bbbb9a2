// Package catalog persists what this authoring console has committed to
// Catalogue Storage: one row per asset keyed by source path, plus an upload
// history log. The remembered cover path feeds the thumbnail resolver's
// lowest-priority source, so re-selecting a committed file shows its last
// known cover immediately.
package catalog
