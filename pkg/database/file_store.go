package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// fileDocument is the on-disk layout, compatible with the lowdb file of earlier deployments
type fileDocument struct {
	Readings []models.Reading `json:"readings"`
}

// FileStore keeps readings in a single JSON document that is atomically replaced on every append
type FileStore struct {
	path  string
	limit int

	// mu serializes writers; readers only load the published snapshot
	mu       sync.Mutex
	readings atomic.Pointer[[]models.Reading]
}

// NewFileStore opens the store at path, creating an empty one when it does not exist.
// A present but undecodable file yields ErrCorruptStore.
func NewFileStore(path string, limit int) (*FileStore, error) {
	if limit <= 0 {
		limit = DefaultRetentionLimit
	}

	fs := &FileStore{
		path:  path,
		limit: limit,
	}

	readings, err := fs.load()
	if err != nil {
		return nil, err
	}
	fs.readings.Store(&readings)

	return fs, nil
}

// load reads the document from disk and keeps the most recent limit entries
func (fs *FileStore) load() ([]models.Reading, error) {
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}

		empty, _ := json.Marshal(fileDocument{Readings: []models.Reading{}})
		if err := writeFileAtomic(fs.path, empty); err != nil {
			return nil, fmt.Errorf("failed to create reading store: %w", err)
		}

		log.Printf("✓ Created empty reading store at %s", fs.path)
		return []models.Reading{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reading store: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, fs.path, err)
	}

	readings := tail(doc.Readings, fs.limit)
	log.Printf("✓ Loaded %d reading(s) from %s (%d on disk)", len(readings), fs.path, len(doc.Readings))

	return readings, nil
}

// Append implements Store
func (fs *FileStore) Append(ctx context.Context, reading models.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	current := *fs.readings.Load()
	next := make([]models.Reading, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, reading)
	if len(next) > fs.limit {
		next = next[len(next)-fs.limit:]
	}

	data, err := json.MarshalIndent(fileDocument{Readings: next}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode readings: %w", err)
	}

	if err := writeFileAtomic(fs.path, data); err != nil {
		return fmt.Errorf("failed to persist reading: %w", err)
	}

	fs.readings.Store(&next)
	return nil
}

// Recent implements Store
func (fs *FileStore) Recent(ctx context.Context, limit int) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tail(*fs.readings.Load(), limit), nil
}

// All implements Store
func (fs *FileStore) All(ctx context.Context) ([]models.Reading, error) {
	return fs.Recent(ctx, 0)
}

// Close implements Store
func (fs *FileStore) Close() error {
	return nil
}

// Path returns the location of the backing document
func (fs *FileStore) Path() string {
	return fs.path
}

// writeFileAtomic replaces path with data so that a crash leaves either the old or the new
// content on disk, never a partial document
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	// Persist the rename itself
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}

	return nil
}
