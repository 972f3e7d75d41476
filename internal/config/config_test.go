package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csheth/versestudio/internal/persist"
	"github.com/csheth/versestudio/internal/scrollsync"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != persist.BackendFile || cfg.SyncMode != scrollsync.Proportional {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AutosaveInterval != 30*time.Second || !cfg.AutoNumber || cfg.LineHeight != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !filepath.IsAbs(cfg.LibraryPath) {
		t.Fatalf("library path should be absolute, got %s", cfg.LibraryPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VERSESTUDIO_STORE", "redis")
	t.Setenv("VERSESTUDIO_STORE_DSN", "redis://localhost:6380/1")
	t.Setenv("VERSESTUDIO_SYNC_MODE", "line")
	t.Setenv("VERSESTUDIO_AUTOSAVE_INTERVAL", "10s")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != persist.BackendRedis || cfg.StoreDSN != "redis://localhost:6380/1" {
		t.Fatalf("store not overridden: %+v", cfg)
	}
	if cfg.SyncMode != scrollsync.FixedLine || cfg.AutosaveInterval != 10*time.Second {
		t.Fatalf("sync settings not overridden: %+v", cfg)
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "versestudio.toml")
	body := "store = \"sqlite\"\nsync-mode = \"paragraph\"\nauto-number = false\nline-height = 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != persist.BackendSQLite || cfg.SyncMode != scrollsync.ParagraphAnchor || cfg.AutoNumber || cfg.LineHeight != 2 {
		t.Fatalf("file values not applied: %+v", cfg)
	}

	if err := ReadFile(NewViper(), filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("explicit missing file should fail")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	cases := map[string]any{
		KeySyncMode:         "diagonal",
		KeyStore:            "etcd",
		KeyAutosaveInterval: "0s",
		KeyLineHeight:       0,
	}
	for key, value := range cases {
		v := NewViper()
		v.Set(key, value)
		if _, err := Load(v); err == nil {
			t.Fatalf("%s=%v should be rejected", key, value)
		}
	}
}
