package persist

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := Open(ctx, BackendSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !NewAgent(first, nil).Snapshot(ctx, "[VERSE 1]\nhello", []string{"a", "b"}) {
		t.Fatal("snapshot failed")
	}
	if err := Close(first); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := OpenSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	got := NewAgent(second, nil).Restore(ctx)
	if got == nil || got.Content != "[VERSE 1]\nhello" || len(got.SelectedNotes) != 2 {
		t.Fatalf("unexpected restore: %+v", got)
	}
	if got := Location(second); got != "sqlite "+path {
		t.Fatalf("Location = %s", got)
	}
}
