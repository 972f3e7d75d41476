// Package logging builds the process logger. The terminal belongs to the UI,
// so log lines go to a size-rotated file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where logs are written.
type Config struct {
	// File is the log path. Empty selects the user cache directory; "-"
	// writes to stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Prefix     string
}

// New returns a logger plus a closer for the underlying writer.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "[versestudio] "
	}
	if cfg.File == "-" {
		return log.New(os.Stderr, prefix, log.LstdFlags), nopCloser{}, nil
	}
	path := cfg.File
	if path == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		path = filepath.Join(base, "versestudio", "versestudio.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
	}
	return log.New(writer, prefix, log.LstdFlags), writer, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
