package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	exerciseStore(t, store)
}

func TestFileStoreLeavesNoPartialFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Set(context.Background(), "a/b:c", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a-b-c.json" {
		t.Fatalf("unexpected files: %v", entries)
	}
}

func TestFileStoreHonorsEnvDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	t.Setenv(stateEnvVar, dir)

	store, err := Open(context.Background(), BackendFile, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := Location(store); got != "file "+dir {
		t.Fatalf("Location = %s, want file %s", got, dir)
	}
	if got := Location(NewMemoryStore()); got != "memory" {
		t.Fatalf("Location = %s, want memory", got)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("state dir not created: %v", err)
	}
}
