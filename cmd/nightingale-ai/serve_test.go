package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nightingale/internal/catalog"
	"nightingale/internal/config"
)

// freeAddr picks an available TCP port on localhost.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitHealthy(t *testing.T, base string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestRunServe_Flow(t *testing.T) {
	modelsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(modelsDir, "local-med.gguf"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Addr = freeAddr(t)
	cfg.DefaultDriver = "echo"
	cfg.Models = []catalog.ModelDescriptor{{ID: "alpha", BackendName: "org/alpha", Recommended: true}}
	cfg.DefaultModel = "alpha"
	cfg.ModelsDir = modelsDir
	cfg.Preload = []string{"alpha"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, zerolog.Nop()) }()
	base := "http://" + cfg.Addr
	waitHealthy(t, base)

	code, body := post(t, base+"/api/v1/explain/term", `{"term":"angina"}`)
	if code != http.StatusOK {
		t.Fatalf("term status=%d body=%s", code, body)
	}

	// scanned GGUF files use the llama driver, absent from default builds
	code, body = post(t, base+"/api/v1/medical/qa?model_id=local-med", `{"question":"q"}`)
	if code != http.StatusServiceUnavailable && code != http.StatusInternalServerError {
		t.Fatalf("gguf model status=%d body=%s", code, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServe: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("runServe did not shut down")
	}
}

func TestRunServe_AddrInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := config.Default()
	cfg.Addr = ln.Addr().String()
	cfg.DefaultDriver = "echo"
	err = runServe(context.Background(), cfg, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected listen error")
	}
}
