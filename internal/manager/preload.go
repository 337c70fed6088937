package manager

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Preload loads ids concurrently. Every id is attempted; failures are
// logged and returned joined. A failed preload is retried on first use like
// any other failed load.
func (m *Manager) Preload(ctx context.Context, ids []string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(4)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := m.GetOrCreate(ctx, id); err != nil {
				m.log.Warn().Str("event", "preload_failed").Str("model", id).Err(err).Send()
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
