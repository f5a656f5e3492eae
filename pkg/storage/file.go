package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps one JSON file per character in a directory.
type FileStore struct {
	dir string
	now func() time.Time
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(_ context.Context, name string) (*Record, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("invalid character name %q", name)
	}
	file, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer file.Close()

	var rec Record
	if err := json.NewDecoder(file).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &rec, nil
}

// Save writes rec to a temporary file and renames it into place, so a crash
// never leaves a half written save.
func (s *FileStore) Save(_ context.Context, rec *Record) error {
	if !ValidName(rec.Name) {
		return fmt.Errorf("invalid character name %q", rec.Name)
	}
	rec.SavedAt = s.now().UTC()

	file, err := os.CreateTemp(s.dir, rec.Name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(file.Name())

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rec); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), s.path(rec.Name))
}

func (s *FileStore) Close() error { return nil }
