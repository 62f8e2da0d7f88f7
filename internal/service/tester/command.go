package tester

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/logger"
)

// errArchitectureRequired is returned when neither ARCHITECTURE nor --architecture is set.
var errArchitectureRequired = errors.New("ARCHITECTURE environment variable is not set")

// Options contains inputs for the tester entry point.
type Options struct {
	// ConfigPath is an optional path to the settings file (defaults to mip.yaml when present).
	ConfigPath string
	// Architecture overrides ARCHITECTURE.
	Architecture string
	// Package limits the run to packages with this name.
	Package string
	// Matlab is the MATLAB executable; "matlab" from PATH when empty.
	Matlab string
}

// Run executes the published package test workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name and run id for tracking.
	ctx = logger.WithName(ctx, "mip-test")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Architecture != "" {
		cfg.Architecture = opts.Architecture
	}

	if cfg.Architecture == "" {
		return errArchitectureRequired
	}

	t := newTester(cfg, opts)

	results, err := t.Run(ctx)
	if len(results) > 0 {
		fmt.Fprintln(os.Stdout, RenderSummary(results))
	}

	if err != nil {
		return fmt.Errorf("package tests failed: %w", err)
	}

	logger.InfoKV(ctx, "All tests passed successfully", "packages", len(results))

	return nil
}
