package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/service/indexer"
	"github.com/mip-org/mip-core/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is one of debug, info, warn, error.
	logLevel string
	// options collects the index switches.
	options indexer.Options

	// rootCmd represents the base command for assembling the package index.
	rootCmd = &cobra.Command{
		Use:   "mip-index",
		Short: "Assemble index.json and packages.html from published metadata",
		Long: `Lists every .mhl.mip.json sidecar in the package bucket and writes index.json and
packages.html into the pages directory.

Sidecars that cannot be downloaded or parsed are skipped with a warning.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.ApplyLevel(logLevel)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath

			return indexer.Run(ctx, &options)
		},
	}
)

// Execute runs the mip-index CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (mip.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	flags := rootCmd.Flags()
	flags.BoolVar(&options.DryRun, "dry-run", false, "log what would be assembled without contacting the bucket")
	flags.StringVar(&options.OutputDir, "output-dir", "", "directory receiving index.json and packages.html")
	flags.BoolVar(&options.Table, "table", false, "print the assembled index as a table")
}
