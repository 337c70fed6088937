package manager

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"nightingale/internal/backend"
	"nightingale/internal/catalog"
)

type Manager struct {
	mu            sync.RWMutex
	catalog       *catalog.Catalog
	factory       backend.Factory
	defaultDriver string
	defaultModel  string
	instances     map[string]*Instance
	lastErr       string

	maxQueueDepth int
	maxWait       time.Duration

	pub       EventPublisher
	log       zerolog.Logger
	startTime time.Time

	loadsTotal        atomic.Uint64
	loadFailuresTotal atomic.Uint64
}

// New constructs a Manager over cat with package defaults.
func New(cat *catalog.Catalog, factory backend.Factory) *Manager {
	return NewWithConfig(ManagerConfig{Catalog: cat, Factory: factory})
}

// SetEventPublisher replaces the event sink. Nil restores the no-op sink.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	m.pub = p
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	p := m.pub
	m.mu.RUnlock()
	p.Publish(e)
}

// Catalog returns the immutable catalog the manager resolves against.
func (m *Manager) Catalog() *catalog.Catalog { return m.catalog }

// DefaultModel is the identifier used when a caller names none.
func (m *Manager) DefaultModel() string { return m.defaultModel }

// Ready reports whether any backend is loaded.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inst := range m.instances {
		if b := inst.loadedBackend(); b != nil {
			return true
		}
	}
	return false
}

// ListModels returns the catalog descriptors in definition order.
func (m *Manager) ListModels() []catalog.ModelDescriptor {
	return m.catalog.List()
}

// Close closes every backend. Entries are dropped; the manager must not be
// used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	insts := m.instances
	m.instances = make(map[string]*Instance)
	m.mu.Unlock()

	var errs []error
	for id, inst := range insts {
		inst.mu.Lock()
		if b := inst.backend.Load(); b != nil {
			if err := b.Close(); err != nil {
				m.log.Warn().Str("event", "close_failed").Str("model", id).Err(err).Send()
				errs = append(errs, err)
			}
		}
		inst.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	if err == nil {
		m.lastErr = ""
	} else {
		m.lastErr = err.Error()
	}
	m.mu.Unlock()
}
