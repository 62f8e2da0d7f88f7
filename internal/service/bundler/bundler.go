package bundler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mip-org/mip-core/internal/acquire"
	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/domain/wheel"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/manifest"
	"github.com/mip-org/mip-core/internal/storage"
)

var (
	// errInputDirMissing is returned when the input directory does not exist.
	errInputDirMissing = errors.New("input directory not found")
	// errManifestMissing is returned for a staged directory without mip.json.
	errManifestMissing = errors.New("mip.json not found")
)

// bundler turns staged directories into published archives.
// It is unexported: callers should use Run, which sets up storage first.
type bundler struct {
	// cfg holds the input directory and the bucket prefix.
	cfg *config.Config
	// opts are the command-line switches.
	opts *Options
	// bucket receives the archives; nil on dry runs.
	bucket storage.Bucket
}

func newBundler(cfg *config.Config, opts *Options, bucket storage.Bucket) *bundler {
	return &bundler{
		cfg:    cfg,
		opts:   opts,
		bucket: bucket,
	}
}

// Run bundles every staged directory in name order and stops at the first failure.
// It returns the number of packages handled.
func (b *bundler) Run(ctx context.Context) (int, error) {
	dirs, err := b.discover()
	if err != nil {
		return 0, err
	}

	if len(dirs) == 0 {
		logger.InfoKV(ctx, "No .dir directories found", "input_dir", b.cfg.PreparedDir)

		return 0, nil
	}

	logger.InfoKV(ctx, "Found staged packages", "count", len(dirs), "input_dir", b.cfg.PreparedDir)

	for i, dir := range dirs {
		if err = b.bundle(ctx, dir); err != nil {
			logger.ErrorKV(ctx, "Bundle/upload failed", "dir", filepath.Base(dir), "error", err)

			return i, fmt.Errorf("%s: %w", filepath.Base(dir), err)
		}
	}

	return len(dirs), nil
}

// discover lists the <wheel>.dir directories of the input directory, sorted.
func (b *bundler) discover() ([]string, error) {
	entries, err := os.ReadDir(b.cfg.PreparedDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", b.cfg.PreparedDir, errInputDirMissing)
		}

		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var dirs []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if _, ok := wheel.FromStagedDir(entry.Name()); ok {
			dirs = append(dirs, filepath.Join(b.cfg.PreparedDir, entry.Name()))
		}
	}

	sort.Strings(dirs)

	return dirs, nil
}

// bundle zips one staged directory and uploads the archive, then the sidecar.
func (b *bundler) bundle(ctx context.Context, dir string) error {
	wheelName, _ := wheel.FromStagedDir(filepath.Base(dir))
	archive := wheelName + wheel.ArchiveExtension
	sidecar := wheel.SidecarFor(archive)

	ctx = logger.WithKV(ctx, "wheel", wheelName)

	logger.Info(ctx, "Processing staged package")

	sidecarData, err := readManifest(dir)
	if err != nil {
		return err
	}

	if b.opts.DryRun {
		logger.InfoKV(ctx, "Would bundle and upload", "archive", archive)

		return nil
	}

	tempDir, err := os.MkdirTemp("", "mip-bundle-"+wheelName+"-")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	archivePath := filepath.Join(tempDir, archive)
	sidecarPath := filepath.Join(tempDir, sidecar)

	logger.Info(ctx, "Creating .mhl file")

	if err = Archive(dir, archivePath); err != nil {
		return err
	}

	if err = os.WriteFile(sidecarPath, sidecarData, manifest.FilePermissions); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}

	if b.opts.KeepArchives != "" {
		if err = b.keep(archivePath, sidecarPath); err != nil {
			return err
		}
	}

	for _, path := range []string{archivePath, sidecarPath} {
		name := filepath.Base(path)
		key := b.cfg.ObjectKey(name)

		if err = b.bucket.PutFile(ctx, key, path, storage.ContentType(name)); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}

		logger.InfoKV(ctx, "Uploaded", "bucket", b.cfg.Storage.Bucket, "key", key)
	}

	return nil
}

// keep copies the produced files into the --keep-archives directory.
func (b *bundler) keep(paths ...string) error {
	if err := os.MkdirAll(b.opts.KeepArchives, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", b.opts.KeepArchives, err)
	}

	for _, path := range paths {
		if err := acquire.CopyFile(path, filepath.Join(b.opts.KeepArchives, filepath.Base(path))); err != nil {
			return fmt.Errorf("keep %s: %w", filepath.Base(path), err)
		}
	}

	return nil
}

// readManifest returns the mip.json of a staged directory after checking it is a JSON object.
func readManifest(dir string) ([]byte, error) {
	path := filepath.Join(dir, wheel.ManifestFilename)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, errManifestMissing)
		}

		return nil, fmt.Errorf("read mip.json: %w", err)
	}

	if _, err = manifest.ParseDocument(data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return data, nil
}
