// Package store persists and serves weather snapshots.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kavinm/tn-district-weather/internal/weather"
)

// ErrNoSnapshot is returned when no snapshot has been written yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// FileStore reads and writes the snapshot document at a fixed path.
// Writes land in a temporary file first and are renamed into place, so a
// concurrent reader never observes a partial document.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

// Save atomically replaces the snapshot file.
func (s *FileStore) Save(snapshot weather.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load decodes the current snapshot file.
func (s *FileStore) Load() (weather.Snapshot, error) {
	data, err := s.Raw()
	if err != nil {
		return weather.Snapshot{}, err
	}

	var snap weather.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return weather.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Raw returns the snapshot file bytes exactly as written, for handlers
// that serve the document without re-encoding it.
func (s *FileStore) Raw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// LastUpdated reports when the current snapshot was generated.
func (s *FileStore) LastUpdated() (time.Time, error) {
	snap, err := s.Load()
	if err != nil {
		return time.Time{}, err
	}
	return snap.LastUpdated, nil
}
