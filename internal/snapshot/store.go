// Package snapshot persists pipeline outputs as whole-file JSON documents.
// Every save is a complete replacement of the prior file via
// write-to-temp-then-rename, so a reader never observes a truncated
// document even if the process dies mid-write.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store writes snapshot files under a single data directory.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the absolute location of a named snapshot file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save serializes v as indented UTF-8 JSON and atomically replaces the
// named file. The temp file lives in the target directory so the final
// rename stays on one filesystem.
func (s *Store) Save(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.Path(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Load reads the named snapshot into v. Returns os.ErrNotExist when no
// snapshot has been written yet.
func (s *Store) Load(name string, v any) error {
	b, err := os.ReadFile(s.Path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a snapshot file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return !errors.Is(err, os.ErrNotExist)
}
