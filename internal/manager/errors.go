package manager

import (
	"errors"

	"nightingale/internal/backend"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ modelID string }

func (e tooBusyError) Error() string { return "too busy: " + e.modelID }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error for an identifier absent from the catalog.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var nf modelNotFoundError
	return errors.As(err, &nf)
}

// IsLoadFailure reports whether err carries a backend load failure.
func IsLoadFailure(err error) bool { return backend.IsLoadError(err) }

// IsGenerationFailure reports whether err carries a driver failure during
// generation.
func IsGenerationFailure(err error) bool { return backend.IsGenerationError(err) }
