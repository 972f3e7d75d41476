package persist

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestRedisStore(t *testing.T) {
	store, mr := setupTestRedis(t)
	exerciseStore(t, store)
	if got := Location(store); got != "redis "+mr.Addr() {
		t.Fatalf("Location = %s", got)
	}
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	agent := NewAgent(store, nil)
	if !agent.Snapshot(ctx, "la la la", []string{"n1", "n2"}) {
		t.Fatal("snapshot failed")
	}
	if !s.Exists(redisKeyPrefix + SnapshotKey) {
		t.Fatalf("expected key %s in redis, have %v", redisKeyPrefix+SnapshotKey, s.Keys())
	}
	got := agent.Restore(ctx)
	if got == nil || got.Content != "la la la" || len(got.SelectedNotes) != 2 {
		t.Fatalf("unexpected restore: %+v", got)
	}
}

func TestRedisStoreOutageDegrades(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()
	agent := NewAgent(store, nil)

	s.Close()
	if agent.Snapshot(ctx, "lyrics", []string{"a"}) {
		t.Fatal("snapshot against a closed server should fail")
	}
	if agent.Restore(ctx) != nil {
		t.Fatal("restore against a closed server should be nil")
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStore(context.Background(), "not-a-url://"); err == nil {
		t.Fatal("expected parse error")
	}
}
