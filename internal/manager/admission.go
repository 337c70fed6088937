package manager

import (
	"context"
	"time"
)

// Admit reserves a queue slot and then the single in-flight slot for id.
// Each wait is bounded by MaxWait; overflow is a too-busy error. The
// returned release func must be called exactly once.
func (m *Manager) Admit(ctx context.Context, id string) (func(), error) {
	if id == "" {
		id = m.defaultModel
	}
	desc, ok := m.catalog.Resolve(id)
	if !ok {
		return func() {}, ErrModelNotFound(id)
	}
	inst := m.instance(desc)

	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case inst.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		admissionRejected.WithLabelValues(id, "queue").Inc()
		return func() {}, tooBusyError{modelID: id}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-inst.queueCh
		}
	}()
	timer2 := time.NewTimer(m.maxWait)
	defer timer2.Stop()
	select {
	case inst.genCh <- struct{}{}:
		acquired = true
		m.mu.Lock()
		inst.LastUsed = time.Now()
		m.mu.Unlock()
		return func() { <-inst.genCh; <-inst.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer2.C:
		admissionRejected.WithLabelValues(id, "inflight").Inc()
		return func() {}, tooBusyError{modelID: id}
	}
}
