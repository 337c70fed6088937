// Package manager is the backend registry. It lazily constructs and loads
// one backend per catalog identifier and admits generation requests
// against it. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: Instance, the per-identifier registry entry.
//   - errors.go: error types and helpers (IsModelNotFound, IsLoadFailure, IsTooBusy).
//   - ensure.go: GetOrCreate, identifier-scoped create-and-load.
//   - admission.go: per-instance queueing and generation admission.
//   - preload.go: concurrent warm-up at startup.
//   - status_report.go: Status reporting for /status.
//   - events.go, eventpub_memory.go: lifecycle events.
//
// A failed load is never cached: every reference to a load_failed
// identifier attempts the load again. Entries live until Close.
package manager
