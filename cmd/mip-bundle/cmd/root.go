package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/service/bundler"
	"github.com/mip-org/mip-core/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is one of debug, info, warn, error.
	logLevel string
	// options collects the bundling switches.
	options bundler.Options

	// rootCmd represents the base command for bundling and uploading packages.
	rootCmd = &cobra.Command{
		Use:   "mip-bundle",
		Short: "Zip staged packages into .mhl archives and upload them",
		Long: `Archives every <wheel>.dir directory produced by mip-prepare into <wheel>.mhl and
uploads the archive, then its metadata sidecar, to the package bucket.

Storage credentials come from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
AWS_ENDPOINT_URL. The run stops at the first package that fails.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.ApplyLevel(logLevel)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath

			return bundler.Run(ctx, &options)
		},
	}
)

// Execute runs the mip-bundle CLI and exits with non-zero status on error.
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
	flags.BoolVar(&options.DryRun, "dry-run", false, "validate staged directories without archiving or uploading")
	flags.StringVar(&options.InputDir, "input-dir", "", "directory holding <wheel>.dir directories")
	flags.StringVar(&options.KeepArchives, "keep-archives", "", "also copy archives and sidecars into this directory")
}
