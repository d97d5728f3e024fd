package storage

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

// KeyValueStore is an opaque string store keyed by name. Values are
// replaced wholesale on Set; the last writer wins.
type KeyValueStore interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Close() error
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

type fileKVStore struct {
	fs  afero.Fs
	dir string
}

// NewFileKVStore creates a KeyValueStore that keeps one JSON file per key
// under dir. Pass afero.NewOsFs() for real files or afero.NewMemMapFs()
// in tests.
func NewFileKVStore(fs afero.Fs, dir string) KeyValueStore {
	return &fileKVStore{fs: fs, dir: dir}
}

func (s *fileKVStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *fileKVStore) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	exists, err := afero.Exists(s.fs, s.path(key))
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !exists {
		return "", false, nil
	}
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes to a temporary file and renames it over the target so a
// crash never leaves a half-written value behind.
func (s *fileKVStore) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("writing %s: creating directory: %w", key, err)
	}
	tmp := s.path(key) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, s.path(key)); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("writing %s: replacing file: %w", key, err)
	}
	return nil
}

func (s *fileKVStore) Close() error { return nil }
