package bundler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/storage"
)

// Options contains inputs for the bundler entry point.
type Options struct {
	// ConfigPath is an optional path to the settings file (defaults to mip.yaml when present).
	ConfigPath string
	// DryRun validates staged directories without creating or uploading archives.
	DryRun bool
	// InputDir overrides the directory holding <wheel>.dir directories.
	InputDir string
	// KeepArchives, when set, receives a copy of every archive and sidecar.
	KeepArchives string
}

// Run executes the bundle and upload workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name and run id for tracking.
	ctx = logger.WithName(ctx, "mip-bundle")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.InputDir != "" {
		cfg.PreparedDir = opts.InputDir
	}

	var bucket storage.Bucket

	if opts.DryRun {
		logger.Info(ctx, "Dry run: nothing will be uploaded")
	} else {
		if err = config.ValidateStorage(cfg); err != nil {
			return err
		}

		if bucket, err = storage.NewS3(cfg.Storage); err != nil {
			return fmt.Errorf("initialize storage: %w", err)
		}
	}

	count, err := newBundler(cfg, opts, bucket).Run(ctx)
	if err != nil {
		return fmt.Errorf("bundle and upload failed: %w", err)
	}

	logger.InfoKV(ctx, "All packages bundled and uploaded successfully", "packages", count)

	return nil
}
