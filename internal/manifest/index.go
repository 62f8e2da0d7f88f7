package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Index is the consolidated catalog of published packages.
type Index struct {
	// Packages keeps discovery order.
	Packages      []Document `json:"packages"`
	TotalPackages int        `json:"total_packages"`
	LastUpdated   string     `json:"last_updated"`
}

// NewIndex builds an index from documents in discovery order.
func NewIndex(packages []Document, now time.Time) *Index {
	if packages == nil {
		packages = []Document{}
	}

	return &Index{
		Packages:      packages,
		TotalPackages: len(packages),
		LastUpdated:   Timestamp(now),
	}
}

// WriteIndex stores idx at path.
func WriteIndex(path string, idx *Index) error {
	return writeJSON(path, idx)
}

// ParseIndex decodes a published index.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	return &idx, nil
}

// ReadIndex loads an index from path.
func ReadIndex(path string) (*Index, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	return ParseIndex(contents)
}
