package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

const (
	// ContentTypeZip is used for .mhl archives.
	ContentTypeZip = "application/zip"
	// ContentTypeJSON is used for metadata sidecars.
	ContentTypeJSON = "application/json"
	// ContentTypeOctetStream is used for everything else.
	ContentTypeOctetStream = "application/octet-stream"
)

// ErrObjectNotFound is returned by Get for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// Bucket is the subset of object storage the pipeline needs.
type Bucket interface {
	// Put uploads size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// PutFile uploads the local file at path under key.
	PutFile(ctx context.Context, key, path, contentType string) error
	// List returns every key starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get downloads the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// ContentType picks the upload content type from a file name.
func ContentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".mhl"):
		return ContentTypeZip
	case strings.HasSuffix(name, ".json"):
		return ContentTypeJSON
	default:
		return ContentTypeOctetStream
	}
}
