package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/storage"
)

// Options contains inputs for the indexer entry point.
type Options struct {
	// ConfigPath is an optional path to the settings file (defaults to mip.yaml when present).
	ConfigPath string
	// DryRun logs what would be assembled without contacting the bucket.
	DryRun bool
	// OutputDir overrides the directory receiving index.json and packages.html.
	OutputDir string
	// Table prints the assembled index as a terminal table.
	Table bool
}

// Run executes the index assembly workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name and run id for tracking.
	ctx = logger.WithName(ctx, "mip-index")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.PagesDir = opts.OutputDir
	}

	if opts.DryRun {
		logger.InfoKV(ctx, "Would assemble index.json from bucket",
			"bucket", cfg.Storage.Bucket,
			"prefix", cfg.Storage.Prefix,
			"output_dir", cfg.PagesDir)

		return nil
	}

	if err = config.ValidateStorage(cfg); err != nil {
		return err
	}

	bucket, err := storage.NewS3(cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	idx, err := newIndexer(cfg, bucket).Run(ctx)
	if err != nil {
		return fmt.Errorf("index assembly failed: %w", err)
	}

	if opts.Table {
		fmt.Fprintln(os.Stdout, RenderTable(idx))
	}

	logger.InfoKV(ctx, "Index assembled successfully", "packages", idx.TotalPackages)

	return nil
}
