package backend

import (
	"context"
	"sync"
	"time"
)

// State is the load state of a Backend.
type State string

const (
	StateUnloaded   State = "unloaded"
	StateLoaded     State = "loaded"
	StateLoadFailed State = "load_failed"
)

// Result is a successful generation.
type Result struct {
	Text    string
	Prompt  string
	Backend string
	Elapsed time.Duration
	Params  Params
}

// Backend wraps a Driver with load state and serializes generation on it.
// A Backend is safe for concurrent use.
type Backend struct {
	name   string
	kind   string
	driver Driver

	// serializes driver loads; never held by state readers
	loadMu sync.Mutex

	mu      sync.Mutex
	state   State
	loads   int
	lastErr error

	// size 1: single in-flight generation per backend
	genCh chan struct{}
}

// New wraps driver for the named model. kind is informational.
func New(name, kind string, driver Driver) *Backend {
	return &Backend{
		name:   name,
		kind:   kind,
		driver: driver,
		state:  StateUnloaded,
		genCh:  make(chan struct{}, 1),
	}
}

func (b *Backend) Name() string { return b.name }

// Kind is the driver kind the backend was constructed with.
func (b *Backend) Kind() string { return b.kind }

func (b *Backend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Loads is the number of load attempts made so far.
func (b *Backend) Loads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

// LastError is the error of the most recent failed load, if any.
func (b *Backend) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Load loads the driver. A loaded backend returns nil without touching the
// driver. A failure leaves the backend in StateLoadFailed.
func (b *Backend) Load(ctx context.Context) error {
	b.loadMu.Lock()
	defer b.loadMu.Unlock()
	if b.State() == StateLoaded {
		return nil
	}
	b.mu.Lock()
	b.loads++
	b.mu.Unlock()

	err := b.driver.Load(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.state = StateLoadFailed
		b.lastErr = err
		backendLoads.WithLabelValues(b.kind, "error").Inc()
		return &LoadError{Backend: b.name, Err: err}
	}
	b.state = StateLoaded
	b.lastErr = nil
	backendLoads.WithLabelValues(b.kind, "ok").Inc()
	return nil
}

// Generate runs one generation. Params are validated first; an unloaded
// backend is loaded once before the driver is called.
func (b *Backend) Generate(ctx context.Context, prompt string, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if err := b.Load(ctx); err != nil {
		return Result{}, err
	}

	select {
	case b.genCh <- struct{}{}:
	case <-ctx.Done():
		return Result{}, &GenerationError{Backend: b.name, Err: ctx.Err()}
	}
	defer func() { <-b.genCh }()

	if b.State() != StateLoaded {
		return Result{}, &GenerationError{Backend: b.name, Err: ErrClosed}
	}

	start := time.Now()
	text, err := b.driver.Generate(ctx, prompt, p)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, &GenerationError{Backend: b.name, Elapsed: elapsed, Err: err}
	}
	return Result{
		Text:    text,
		Prompt:  prompt,
		Backend: b.name,
		Elapsed: elapsed,
		Params:  p,
	}, nil
}

// Close waits for any in-flight generation, releases the driver and
// returns the backend to StateUnloaded.
func (b *Backend) Close() error {
	b.genCh <- struct{}{}
	defer func() { <-b.genCh }()
	b.loadMu.Lock()
	defer b.loadMu.Unlock()
	b.mu.Lock()
	wasLoaded := b.state == StateLoaded
	b.state = StateUnloaded
	b.mu.Unlock()
	if !wasLoaded {
		return nil
	}
	return b.driver.Close()
}
