package backend

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testCtx returns a context canceled at test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// fakeDriver is an in-memory driver whose failures can be scripted.
type fakeDriver struct {
	mu       sync.Mutex
	loadErrs []error // consumed one per Load call
	genErr   error
	reply    string
	loads    int
	gens     int
	closed   int
	prompts  []string
	params   []Params
	block    chan struct{}
}

func (f *fakeDriver) Load(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if len(f.loadErrs) > 0 {
		err := f.loadErrs[0]
		f.loadErrs = f.loadErrs[1:]
		return err
	}
	return nil
}

func (f *fakeDriver) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gens++
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, p)
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.reply, nil
}

func (f *fakeDriver) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}
