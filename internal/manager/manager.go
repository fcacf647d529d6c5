package manager

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Manager launches llama-server processes and tracks the ones it owns,
// keyed by port.
type Manager struct {
	cfg       ManagerConfig
	log       zerolog.Logger
	publisher EventPublisher

	mu      sync.Mutex
	handles map[int]*Handle
}

// NewWithConfig constructs a Manager from ManagerConfig, applying defaults.
func NewWithConfig(cfg ManagerConfig) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "manager").Logger(),
		publisher: noopPublisher{},
		handles:   make(map[int]*Handle),
	}
}

// SetEventPublisher installs an EventPublisher for lifecycle events.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		m.publisher = noopPublisher{}
		return
	}
	m.publisher = p
}

func (m *Manager) publish(e Event) {
	m.mu.Lock()
	p := m.publisher
	m.mu.Unlock()
	p.Publish(e)
}

// Handle returns the live handle on port, if any.
func (m *Manager) Handle(port int) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[port]
	if !ok || h.cmd == nil {
		return nil, false
	}
	return h, true
}

// Handles returns the live handles ordered by port. Ports reserved by a
// launch that has not spawned yet are skipped.
func (m *Manager) Handles() []*Handle {
	m.mu.Lock()
	out := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		if h.cmd != nil {
			out = append(out, h)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].port < out[j].port })
	return out
}

// TerminateAll terminates every process this manager launched. Best effort:
// the first error is returned after all handles have been attempted.
func (m *Manager) TerminateAll() error {
	var first error
	for _, h := range m.Handles() {
		if err := h.Terminate(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// reserve claims port for h, failing if a live handle already holds it.
func (m *Manager) reserve(h *Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.handles[h.port]; ok {
		return ErrPortInUse(h.port)
	}
	m.handles[h.port] = h
	return nil
}

// release drops h from the table if it still owns its port.
func (m *Manager) release(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handles[h.port] == h {
		delete(m.handles, h.port)
	}
}
