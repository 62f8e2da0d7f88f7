package indexer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/domain/wheel"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/manifest"
	"github.com/mip-org/mip-core/internal/storage"
)

const (
	// IndexFilename is the machine-readable index.
	IndexFilename = "index.json"
	// PagesFilename is the human-readable listing.
	PagesFilename = "packages.html"
)

// indexer assembles the index from the bucket.
// It is unexported: callers should use Run, which sets up storage first.
type indexer struct {
	// cfg holds the bucket prefix, public base URL and output directory.
	cfg *config.Config
	// bucket is listed and read.
	bucket storage.Bucket
	// now is the clock.
	now func() time.Time
}

func newIndexer(cfg *config.Config, bucket storage.Bucket) *indexer {
	return &indexer{
		cfg:    cfg,
		bucket: bucket,
		now:    time.Now,
	}
}

// Run collects every sidecar under the prefix and writes both index files.
func (x *indexer) Run(ctx context.Context) (*manifest.Index, error) {
	keys, err := x.listSidecars(ctx)
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		logger.Warn(ctx, "No packages found in bucket")
	}

	packages := make([]manifest.Document, 0, len(keys))

	for i, key := range keys {
		logger.InfoKV(ctx, "Downloading package metadata",
			"n", i+1,
			"of", len(keys),
			"file", path.Base(key))

		doc, fetchErr := x.fetch(ctx, key)
		if fetchErr != nil {
			logger.WarnKV(ctx, "Skipping package metadata", "key", key, "error", fetchErr)

			continue
		}

		packages = append(packages, doc)
	}

	idx := manifest.NewIndex(packages, x.now())

	if err = os.MkdirAll(x.cfg.PagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	indexPath := filepath.Join(x.cfg.PagesDir, IndexFilename)
	if err = manifest.WriteIndex(indexPath, idx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Created index.json", "packages", idx.TotalPackages, "path", indexPath)

	pagesPath := filepath.Join(x.cfg.PagesDir, PagesFilename)
	if err = WriteHTML(pagesPath, idx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Created packages.html", "path", pagesPath)

	return idx, nil
}

// listSidecars returns the sidecar keys under the prefix in sorted order.
func (x *indexer) listSidecars(ctx context.Context) ([]string, error) {
	prefix := x.cfg.ObjectKey("")

	logger.InfoKV(ctx, "Listing packages", "bucket", x.cfg.Storage.Bucket, "prefix", prefix)

	all, err := x.bucket.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	var keys []string

	for _, key := range all {
		if strings.HasSuffix(key, wheel.ArchiveExtension+wheel.SidecarSuffix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	logger.InfoKV(ctx, "Found package metadata files", "count", len(keys))

	return keys, nil
}

// fetch downloads one sidecar and backfills its download URLs.
func (x *indexer) fetch(ctx context.Context, key string) (manifest.Document, error) {
	data, err := x.bucket.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	doc, err := manifest.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	doc.Backfill(x.cfg.BaseURL, key)

	return doc, nil
}
