package preview

import "fmt"

// State represents the lifecycle of the asset currently being authored.
type State string

const (
	// StateIdle means no asset is selected.
	StateIdle State = "idle"
	// StateAnalyzing means derivation work is in flight for the selection.
	StateAnalyzing State = "analyzing"
	// StatePreviewReady means every derivation step has settled.
	StatePreviewReady State = "preview_ready"
	// StateEditing means a scratch metadata copy is open.
	StateEditing State = "editing"
	// StateCommitting means an upload to Catalogue Storage is in flight.
	StateCommitting State = "committing"
	// StateUploaded means the asset was accepted and its preview torn down.
	StateUploaded State = "uploaded"
	// StateFailed means the upload was rejected; the preview is retained.
	StateFailed State = "failed"
)

var allStates = []State{
	StateIdle,
	StateAnalyzing,
	StatePreviewReady,
	StateEditing,
	StateCommitting,
	StateUploaded,
	StateFailed,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := stateSet[s]
	return ok
}

// transitions lists every legal state change. A new selection is legal from
// any state except committing, where the in-flight upload must be cancelled
// first.
var transitions = map[State][]State{
	StateIdle:         {StateAnalyzing},
	StateAnalyzing:    {StateAnalyzing, StatePreviewReady, StateIdle},
	StatePreviewReady: {StateEditing, StateCommitting, StateAnalyzing, StateIdle},
	StateEditing:      {StatePreviewReady, StateAnalyzing, StateIdle},
	StateCommitting:   {StateUploaded, StateFailed, StatePreviewReady},
	StateUploaded:     {StateAnalyzing, StateIdle},
	StateFailed:       {StateCommitting, StateEditing, StateAnalyzing, StateIdle},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError reports an attempted illegal state change.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal state transition %s -> %s", e.From, e.To)
}
