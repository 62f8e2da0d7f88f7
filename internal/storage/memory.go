package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// errInjected marks failures configured with FailOn.
var errInjected = errors.New("injected storage failure")

// Object is one stored blob of a Memory bucket.
type Object struct {
	Data        []byte
	ContentType string
}

// Memory is an in-process Bucket.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
	// order records successful uploads.
	order []string
	// failures maps keys to errors returned by Put/PutFile/Get.
	failures map[string]error
}

// NewMemory creates an empty bucket.
func NewMemory() *Memory {
	return &Memory{
		objects:  make(map[string]Object),
		failures: make(map[string]error),
	}
}

// FailOn makes every operation on key fail.
func (m *Memory) FailOn(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[key] = fmt.Errorf("%s: %w", key, errInjected)
}

// Object returns the stored object for key.
func (m *Memory) Object(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.objects[key]

	return o, ok
}

// Uploads returns keys in upload order.
func (m *Memory) Uploads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.order...)
}

// Put implements Bucket.
func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	return m.store(key, data, contentType)
}

// PutFile implements Bucket.
func (m *Memory) PutFile(_ context.Context, key, path, contentType string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}

	return m.store(key, data, contentType)
}

// List implements Bucket.
func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// Get implements Bucket.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failures[key]; ok {
		return nil, err
	}

	o, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}

	return append([]byte(nil), o.Data...), nil
}

func (m *Memory) store(key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failures[key]; ok {
		return err
	}

	m.objects[key] = Object{Data: data, ContentType: contentType}
	m.order = append(m.order, key)

	return nil
}
