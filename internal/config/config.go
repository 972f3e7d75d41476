// Package config resolves runtime settings from flags, VERSESTUDIO_*
// environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/csheth/versestudio/internal/persist"
	"github.com/csheth/versestudio/internal/scrollsync"
	"github.com/csheth/versestudio/internal/studio"
)

const envPrefix = "VERSESTUDIO"

// Keys shared by flags, env vars and the config file.
const (
	KeyLibrary          = "library"
	KeyStore            = "store"
	KeyStoreDSN         = "store-dsn"
	KeyAutosaveInterval = "autosave-interval"
	KeySyncMode         = "sync-mode"
	KeyLineHeight       = "line-height"
	KeyAutoNumber       = "auto-number"
	KeyLogFile          = "log-file"
	KeyLLMProvider      = "llm-provider"
	KeyLLMModel         = "llm-model"
	KeyLLMEndpoint      = "llm-endpoint"
	KeyNoAltScreen      = "no-alt-screen"
)

// Config is the resolved runtime configuration.
type Config struct {
	LibraryPath      string
	Store            persist.Backend
	StoreDSN         string
	AutosaveInterval time.Duration
	SyncMode         scrollsync.Mode
	LineHeight       float64
	AutoNumber       bool
	LogFile          string
	LLMProvider      string
	LLMModel         string
	LLMEndpoint      string
	NoAltScreen      bool
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		LibraryPath:      filepath.Join(".", "lyrics.json"),
		Store:            persist.BackendFile,
		AutosaveInterval: studio.DefaultAutosaveInterval,
		SyncMode:         scrollsync.Proportional,
		LineHeight:       1,
		AutoNumber:       true,
	}
}

// NewViper returns a viper instance with defaults and env binding applied.
func NewViper() *viper.Viper {
	d := Defaults()
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyLibrary, d.LibraryPath)
	v.SetDefault(KeyStore, string(d.Store))
	v.SetDefault(KeyStoreDSN, "")
	v.SetDefault(KeyAutosaveInterval, d.AutosaveInterval)
	v.SetDefault(KeySyncMode, string(d.SyncMode))
	v.SetDefault(KeyLineHeight, d.LineHeight)
	v.SetDefault(KeyAutoNumber, d.AutoNumber)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLLMProvider, "")
	v.SetDefault(KeyLLMModel, "")
	v.SetDefault(KeyLLMEndpoint, "")
	v.SetDefault(KeyNoAltScreen, false)
	return v
}

// ReadFile loads path, or searches for versestudio.{toml,yaml,json} in the
// working directory and the user config directory when path is empty. A
// missing optional file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	v.SetConfigName("versestudio")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "versestudio"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	mode, err := scrollsync.ParseMode(v.GetString(KeySyncMode))
	if err != nil {
		return Config{}, err
	}
	store := persist.Backend(strings.ToLower(v.GetString(KeyStore)))
	switch store {
	case persist.BackendFile, persist.BackendMemory, persist.BackendRedis, persist.BackendSQLite:
	default:
		return Config{}, fmt.Errorf("unknown store backend %q", store)
	}
	interval := v.GetDuration(KeyAutosaveInterval)
	if interval <= 0 {
		return Config{}, fmt.Errorf("autosave interval must be positive, got %s", interval)
	}
	lineHeight := v.GetFloat64(KeyLineHeight)
	if lineHeight <= 0 {
		return Config{}, fmt.Errorf("line height must be positive, got %v", lineHeight)
	}
	library := v.GetString(KeyLibrary)
	if abs, err := filepath.Abs(library); err == nil {
		library = abs
	}
	return Config{
		LibraryPath:      library,
		Store:            store,
		StoreDSN:         v.GetString(KeyStoreDSN),
		AutosaveInterval: interval,
		SyncMode:         mode,
		LineHeight:       lineHeight,
		AutoNumber:       v.GetBool(KeyAutoNumber),
		LogFile:          v.GetString(KeyLogFile),
		LLMProvider:      v.GetString(KeyLLMProvider),
		LLMModel:         v.GetString(KeyLLMModel),
		LLMEndpoint:      v.GetString(KeyLLMEndpoint),
		NoAltScreen:      v.GetBool(KeyNoAltScreen),
	}, nil
}
