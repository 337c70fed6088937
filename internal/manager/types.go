package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"nightingale/internal/backend"
	"nightingale/internal/catalog"
)

// Instance is the registry entry for one catalog identifier. It is created
// on first reference and lives until Manager.Close.
type Instance struct {
	ID         string
	Descriptor catalog.ModelDescriptor
	Driver     string

	// serializes create-and-load for this identifier
	mu sync.Mutex
	// written under mu; read lock-free by status
	backend atomic.Pointer[backend.Backend]

	// LastUsed is guarded by Manager.mu.
	LastUsed time.Time

	genCh   chan struct{} // size 1: single in-flight generation
	queueCh chan struct{} // buffered: queue slots
}

// loadedBackend returns the backend if it exists and is loaded.
func (inst *Instance) loadedBackend() *backend.Backend {
	b := inst.backend.Load()
	if b != nil && b.State() == backend.StateLoaded {
		return b
	}
	return nil
}
