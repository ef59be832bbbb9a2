package thumbnail

import (
	"sync"

	"media-author/internal/logging"
)

// Tier ranks thumbnail sources. Lower values win.
type Tier int

const (
	// TierCustom is an operator-uploaded cover file.
	TierCustom Tier = iota + 1
	// TierExternal is a thumbnail reference resolved from a canonical
	// external identifier.
	TierExternal
	// TierGenerated is an auto-captured video frame.
	TierGenerated
	// TierPersisted is a thumbnail already stored in the catalogue from a
	// previous authoring session.
	TierPersisted
)

// String returns the metrics label for a tier.
func (t Tier) String() string {
	switch t {
	case TierCustom:
		return "custom"
	case TierExternal:
		return "external"
	case TierGenerated:
		return "generated"
	case TierPersisted:
		return "persisted"
	}
	return "none"
}

// ImageRef points at a thumbnail image: a local file derived by this
// process, or a remote reference the catalogue can resolve.
type ImageRef struct {
	Path   string `json:"path"`
	Remote bool   `json:"remote"`
	Tier   Tier   `json:"tier"`
}

// Resolver holds the winning thumbnail for one asset. Derivation steps call
// Offer from whatever goroutine they complete on; the guard runs at the
// moment of assignment, not at call start.
type Resolver struct {
	mu      sync.Mutex
	current *ImageRef
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Offer proposes a thumbnail. It reports whether the proposal was accepted.
//
// A custom cover always overwrites whatever is set, including an earlier
// custom cover (the operator changed their mind). Every other tier fills an
// empty slot or replaces a strictly lower-priority result, never an equal or
// higher one.
func (r *Resolver) Offer(ref ImageRef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.current == nil:
	case ref.Tier == TierCustom:
	case ref.Tier < r.current.Tier:
	default:
		logging.Debug("Thumbnail: %s result discarded, %s already set", ref.Tier, r.current.Tier)
		return false
	}

	r.current = &ref
	logging.Debug("Thumbnail: %s result accepted", ref.Tier)
	return true
}

// Current returns the winning thumbnail, or nil if none has been set.
func (r *Resolver) Current() *ImageRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	ref := *r.current
	return &ref
}

// Reset clears the resolver for a new source file.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}
