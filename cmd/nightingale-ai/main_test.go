package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nightingale/internal/catalog"
)

func TestModelsCommand_JSON(t *testing.T) {
	t.Setenv("NIGHTINGALE_MODELS_DIR", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"models", "--format", "json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var descs []catalog.ModelDescriptor
	if err := json.Unmarshal(out.Bytes(), &descs); err != nil {
		t.Fatalf("json: %v\n%s", err, out.String())
	}
	if len(descs) != len(catalog.DefaultDescriptors()) || descs[0].ID != catalog.DefaultModelID {
		t.Fatalf("descs=%+v", descs)
	}
}

func TestModelsCommand_TableFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nightingale.yaml")
	yml := "default_model: tiny\nmodels:\n  - id: tiny\n    name: org/tiny\n    driver: echo\n    recommended: true\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NIGHTINGALE_DEFAULT_MODEL", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"models", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "tiny") || !strings.Contains(out.String(), "echo") || !strings.Contains(out.String(), "yes") {
		t.Fatalf("table:\n%s", out.String())
	}
}

func TestModelsCommand_UnknownFormat(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"models", "--format", "xml"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv("NIGHTINGALE_ADDR", ":9999")
	t.Setenv("NIGHTINGALE_DEFAULT_DRIVER", "ollama")
	t.Setenv("NIGHTINGALE_LOG_LEVEL", "")
	f := &serveFlags{}
	cmd := newServeCmd(f)
	if err := cmd.ParseFlags([]string{"--default-driver", "echo", "--preload", "medgemma_2b, biogpt"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.DefaultDriver != "echo" || len(cfg.Preload) != 2 || cfg.Preload[1] != "biogpt" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unset flags must not override: %q", cfg.LogLevel)
	}
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	f := &serveFlags{}
	cmd := newServeCmd(f)
	if err := cmd.ParseFlags([]string{"--default-driver", "tensorflow"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd, f); err == nil {
		t.Fatalf("expected validation error")
	}
}
