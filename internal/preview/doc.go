// Package preview drives one asset at a time through the authoring
// lifecycle: selection and validation, concurrent derivation of metadata and
// visual previews, metadata editing against a scratch copy, and commit to
// Catalogue Storage.
//
// State changes are validated against an explicit transition table. Each
// selection carries a generation number; derivation results from a
// superseded selection are discarded at assignment time, and every derived
// artifact is owned by the selection's lifecycle manager so replacement and
// teardown release resources exactly once.
package preview
