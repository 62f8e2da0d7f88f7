package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/service/preparer"
	"github.com/mip-org/mip-core/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is one of debug, info, warn, error.
	logLevel string
	// options collects the preparation switches.
	options preparer.Options

	// rootCmd represents the base command for preparing packages.
	rootCmd = &cobra.Command{
		Use:   "mip-prepare",
		Short: "Build package definitions into staged directories",
		Long: `Reads every package definition under the packages directory and prepares the ones
eligible for this BUILD_TYPE and platform into <wheel>.dir directories.

A package whose published metadata already matches its definition is skipped
unless --force is given. The run stops at the first package that fails.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.ApplyLevel(logLevel)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath

			return preparer.Run(ctx, &options)
		},
	}
)

// Execute runs the mip-prepare CLI and exits with non-zero status on error.
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
	flags.BoolVar(&options.DryRun, "dry-run", false, "check and log without building anything")
	flags.BoolVar(&options.Force, "force", false, "rebuild even when the published package is up to date")
	flags.StringVar(&options.OutputDir, "output-dir", "", "directory receiving <wheel>.dir directories")
	flags.StringVar(&options.PackagesDir, "packages-dir", "", "directory holding package definitions")
	flags.StringVar(&options.Package, "package", "", "prepare only the package with this name")
	flags.StringVar(&options.Release, "release", "", "prepare only definitions with this version")
	flags.StringVar(&options.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
}
