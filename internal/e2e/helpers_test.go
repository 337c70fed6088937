package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"nightingale/internal/backend"
	"nightingale/internal/config"
	"nightingale/internal/httpapi"
	"nightingale/internal/manager"
	"nightingale/internal/pipeline"
)

const testConfigYAML = `
default_model: alpha
default_driver: echo
max_queue_depth: 4
max_wait_ms: 2000
models:
  - id: alpha
    name: org/alpha
    description: echo model
    recommended: true
  - id: beta
    name: org/beta
    category: vision
`

// loadTestConfig writes body to a temp config file and loads it the way
// the serve command does.
func loadTestConfig(t *testing.T, body string, env map[string]string) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nightingale.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

// newServer wires config -> manager -> pipeline -> httpapi. A nil factory
// uses the real driver factory from cfg.
func newServer(t *testing.T, cfg config.Config, factory backend.Factory) (*httptest.Server, *manager.Manager) {
	t.Helper()
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if factory == nil {
		factory = backend.NewFactory(cfg.BackendOptions())
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Catalog:       cat,
		Factory:       factory,
		DefaultDriver: cfg.DefaultDriver,
		DefaultModel:  cfg.DefaultModel,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.MaxWait(),
	})
	pipe := pipeline.New(mgr)
	srv := httptest.NewServer(httpapi.NewMux(mgr, pipe))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	return do(t, req)
}

func httpPostJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// gateDriver blocks Generate until release is closed.
type gateDriver struct {
	started chan struct{}
	release chan struct{}
}

func (d *gateDriver) Load(context.Context) error { return nil }

func (d *gateDriver) Generate(ctx context.Context, prompt string, _ backend.Params) (string, error) {
	select {
	case d.started <- struct{}{}:
	default:
	}
	select {
	case <-d.release:
		return prompt, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *gateDriver) Close() error { return nil }
