package lifecycle

import (
	"sort"
	"sync"

	"media-author/internal/logging"
	"media-author/internal/metrics"

	"github.com/google/uuid"
)

// Token identifies a registered resource handle.
type Token string

// ReleaseFunc frees the underlying resource. It runs at most once.
type ReleaseFunc func() error

type entry struct {
	name    string
	release ReleaseFunc
	seq     uint64
}

// Manager owns every transient resource handle created during analysis and
// preview derivation. All methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	entries map[Token]*entry
	seq     uint64
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[Token]*entry)}
}

// Register records a resource and the function that frees it. The name is
// only used for logging.
func (m *Manager) Register(name string, release ReleaseFunc) Token {
	token := Token(uuid.NewString())

	m.mu.Lock()
	m.seq++
	m.entries[token] = &entry{name: name, release: release, seq: m.seq}
	live := len(m.entries)
	m.mu.Unlock()

	metrics.ResourceHandlesLive.Set(float64(live))
	logging.Debug("Lifecycle: registered %s (%d live)", name, live)
	return token
}

// Release frees the resource identified by token. Releasing an unknown or
// already-released token is a no-op, which makes release exactly-once by
// construction.
func (m *Manager) Release(token Token) {
	m.mu.Lock()
	e, ok := m.entries[token]
	if ok {
		delete(m.entries, token)
	}
	live := len(m.entries)
	m.mu.Unlock()

	if !ok {
		return
	}

	m.run(e)
	metrics.ResourceHandlesLive.Set(float64(live))
}

// ReleaseAll frees every tracked resource, newest first. It is called on
// source replacement (before the replacement's handles are created) and on
// component teardown.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	pending := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		pending = append(pending, e)
	}
	m.entries = make(map[Token]*entry)
	m.mu.Unlock()

	// Newest first: derived artifacts go before the scratch files they
	// were derived from.
	sort.Slice(pending, func(i, j int) bool { return pending[i].seq > pending[j].seq })

	for _, e := range pending {
		m.run(e)
	}
	metrics.ResourceHandlesLive.Set(0)

	if len(pending) > 0 {
		logging.Debug("Lifecycle: released all %d handles", len(pending))
	}
}

// Live returns the number of currently tracked handles.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) run(e *entry) {
	if e.release == nil {
		return
	}
	if err := e.release(); err != nil {
		logging.Warn("Lifecycle: release of %s failed: %v", e.name, err)
	} else {
		logging.Debug("Lifecycle: released %s", e.name)
	}
	metrics.ResourceHandlesReleased.Inc()
}
