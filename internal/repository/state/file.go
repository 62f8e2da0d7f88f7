package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mip-org/mip-core/internal/domain/run"
)

// Repository defines persistence operations for the run marker.
type Repository interface {
	Load(ctx context.Context) (*run.Marker, error)
	Save(ctx context.Context, marker *run.Marker) error
	Remove(ctx context.Context) error
}

// FileRepository persists the run marker to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the marker file.
	path string
	// mu protects concurrent access to the marker file.
	mu sync.Mutex
}

const filePermissions os.FileMode = 0o644

var (
	// ErrNotFound is returned when no marker file exists.
	ErrNotFound = errors.New("run marker not found")
	// errEmptyMarker is returned when a nil marker is saved.
	errEmptyMarker = errors.New("run marker is empty")
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the marker file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the marker from disk.
func (r *FileRepository) Load(_ context.Context) (*run.Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read run marker: %w", err)
	}

	var marker run.Marker
	if err = json.Unmarshal(contents, &marker); err != nil {
		return nil, fmt.Errorf("decode run marker: %w", err)
	}

	return &marker, nil
}

// Save writes the marker to disk, replacing any previous one.
func (r *FileRepository) Save(_ context.Context, marker *run.Marker) error {
	if marker == nil {
		return errEmptyMarker
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run marker: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	if err = os.WriteFile(r.path, data, filePermissions); err != nil {
		return fmt.Errorf("write run marker: %w", err)
	}

	return nil
}

// Remove deletes the marker. A missing marker is not an error.
func (r *FileRepository) Remove(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove run marker: %w", err)
	}

	return nil
}
