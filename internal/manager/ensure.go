package manager

import (
	"context"
	"time"

	"nightingale/internal/backend"
	"nightingale/internal/catalog"
)

// GetOrCreate returns the loaded backend for id, constructing and loading it
// on first reference. Unknown identifiers fail with ErrModelNotFound and
// leave no registry entry behind. A failed load is returned as a load
// failure and the entry is kept so the next call tries again.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*backend.Backend, error) {
	if id == "" {
		id = m.defaultModel
	}
	desc, ok := m.catalog.Resolve(id)
	if !ok {
		m.publish(Event{Name: EventModelNotFound, ModelID: id})
		return nil, ErrModelNotFound(id)
	}
	inst := m.instance(desc)

	// fast path: no lock needed once loaded
	if b := inst.loadedBackend(); b != nil {
		return b, nil
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	b := inst.backend.Load()
	if b == nil {
		drv, err := m.factory(inst.Driver, desc.BackendName)
		if err != nil {
			lerr := &backend.LoadError{Backend: desc.BackendName, Err: err}
			m.loadFailed(id, lerr)
			return nil, lerr
		}
		b = backend.New(desc.BackendName, inst.Driver, drv)
		inst.backend.Store(b)
	}
	if b.State() == backend.StateLoaded {
		return b, nil
	}

	m.publish(Event{Name: EventLoadStart, ModelID: id, Fields: map[string]any{"backend": desc.BackendName, "driver": inst.Driver}})
	m.log.Info().Str("event", EventLoadStart).Str("model", id).Str("backend", desc.BackendName).Str("driver", inst.Driver).Send()
	start := time.Now()
	if err := b.Load(ctx); err != nil {
		m.loadFailed(id, err)
		return nil, err
	}
	m.loadsTotal.Add(1)
	m.setLastError(nil)
	elapsed := time.Since(start)
	m.publish(Event{Name: EventLoadReady, ModelID: id, Fields: map[string]any{"elapsed": elapsed}})
	m.log.Info().Str("event", EventLoadReady).Str("model", id).Dur("elapsed", elapsed).Send()
	return b, nil
}

func (m *Manager) loadFailed(id string, err error) {
	m.loadFailuresTotal.Add(1)
	m.setLastError(err)
	m.publish(Event{Name: EventLoadFailed, ModelID: id, Fields: map[string]any{"error": err.Error()}})
	m.log.Error().Str("event", EventLoadFailed).Str("model", id).Err(err).Send()
}

// instance returns the entry for desc, creating it if needed.
func (m *Manager) instance(desc catalog.ModelDescriptor) *Instance {
	m.mu.RLock()
	inst, ok := m.instances[desc.ID]
	m.mu.RUnlock()
	if ok {
		return inst
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[desc.ID]; ok {
		return inst
	}
	driver := desc.Driver
	if driver == "" {
		driver = m.defaultDriver
	}
	inst = &Instance{
		ID:         desc.ID,
		Descriptor: desc,
		Driver:     driver,
		genCh:      make(chan struct{}, 1),
		queueCh:    make(chan struct{}, m.maxQueueDepth),
	}
	m.instances[desc.ID] = inst
	return inst
}
