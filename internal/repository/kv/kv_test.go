package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := backend.Get(ctx, "breadProductionData"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty backend, got %v", err)
	}

	if err := backend.Put(ctx, "breadProductionData", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := backend.Put(ctx, "breadProductionData", []byte(`{"b":2}`)); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := backend.Get(ctx, "breadProductionData")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"b":2}` {
		t.Fatalf("Get = %s, want the last written value", got)
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	exerciseBackend(t, backend)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "breadProductionData.json" {
		t.Fatalf("unexpected files left behind: %v", entries)
	}
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	if err := backend.Put(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatalf("expected key validation error")
	}
}
