package preparer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/logger"
)

// Options contains inputs for the preparer entry point.
type Options struct {
	// ConfigPath is an optional path to the settings file (defaults to mip.yaml when present).
	ConfigPath string
	// DryRun checks and logs what would be prepared without building.
	DryRun bool
	// Force rebuilds packages even when the published manifest matches.
	Force bool
	// OutputDir overrides the directory receiving <wheel>.dir directories.
	OutputDir string
	// PackagesDir overrides the directory holding package definitions.
	PackagesDir string
	// Package limits the run to definitions with this name.
	Package string
	// Release limits the run to definitions with this version.
	Release string
	// MetricsFile is an optional Prometheus textfile written when the run ends.
	MetricsFile string
}

// Run executes the preparation workflow.
func Run(ctx context.Context, opts *Options) error {
	runID := uuid.NewString()

	// Set context with logger name and run id for tracking.
	ctx = logger.WithName(ctx, "mip-prepare")
	ctx = logger.WithKV(ctx, "run_id", runID)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.PreparedDir = opts.OutputDir
	}

	if opts.PackagesDir != "" {
		cfg.PackagesDir = opts.PackagesDir
	}

	if opts.DryRun {
		logger.Info(ctx, "Dry run: nothing will be built")
	}

	if opts.Force {
		logger.Info(ctx, "Force: every package will be rebuilt")
	}

	report, err := newPreparer(cfg, opts, runID).Run(ctx)
	if err != nil {
		return fmt.Errorf("preparation failed: %w", err)
	}

	logger.InfoKV(ctx, "All packages prepared successfully",
		"prepared", report.Count(StateDone),
		"skipped", report.Count(StateSkipped))

	return nil
}
