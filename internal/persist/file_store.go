package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	stateEnvVar   = "VERSESTUDIO_STATE_DIR"
	stateSubdir   = "versestudio/state"
	partialSuffix = ".part"
	valueSuffix   = ".json"
)

// FileStore keeps one file per key. Writes go to a partial file first and
// are renamed into place.
type FileStore struct {
	dir string
}

// NewFileStore uses dir, falling back to $VERSESTUDIO_STATE_DIR and then the
// user cache directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = os.Getenv(stateEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "versestudio-cache")
		}
		dir = filepath.Join(base, stateSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the values.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	path := s.pathFor(key)
	partial := path + partialSuffix
	if err := os.WriteFile(partial, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(partial, path)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	_ = os.Remove(s.pathFor(key) + partialSuffix)
	return nil
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+valueSuffix)
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, ":", "-")
	value = strings.ReplaceAll(value, "..", "-")
	return value
}
