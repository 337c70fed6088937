package backend

import (
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by Generate when the backend was closed while the
// call waited for its turn.
var ErrClosed = errors.New("backend closed")

// LoadError reports a failed Load. The backend stays in StateLoadFailed and
// the next call re-attempts the load.
type LoadError struct {
	Backend string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Backend, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// GenerationError reports a driver failure during Generate.
type GenerationError struct {
	Backend string
	Elapsed time.Duration
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// dependencyUnavailableError signals a runtime that was not compiled into
// this binary (e.g. llama.cpp without the llama build tag).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}

// IsLoadError reports whether err wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsGenerationError reports whether err wraps a *GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
