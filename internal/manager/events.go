package manager

// Event names published by the manager.
const (
	EventLoadStart     = "load_start"
	EventLoadReady     = "load_ready"
	EventLoadFailed    = "load_failed"
	EventModelNotFound = "model_not_found"
)

// Event represents a registry lifecycle event.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
