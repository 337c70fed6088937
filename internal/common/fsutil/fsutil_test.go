package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome("~"); err != nil || got != home {
		t.Fatalf("expected %q, got %q err=%v", home, got, err)
	}
	if got, err := ExpandHome("~/models"); err != nil || got != filepath.Join(home, "models") {
		t.Fatalf("got %q err=%v", got, err)
	}
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveDir(dir)
	if err != nil || got != dir {
		t.Fatalf("got %q err=%v", got, err)
	}

	f := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveDir(f); err == nil {
		t.Fatalf("expected error for regular file")
	}
	if _, err := ResolveDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
