package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/service/tester"
	"github.com/mip-org/mip-core/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is one of debug, info, warn, error.
	logLevel string
	// options collects the test switches.
	options tester.Options

	// rootCmd represents the base command for testing published packages.
	rootCmd = &cobra.Command{
		Use:   "mip-test",
		Short: "Install, load, unload and uninstall every published package in MATLAB",
		Long: `Downloads the published index and, for every package built for ARCHITECTURE or
for any architecture, runs a MATLAB script that installs, loads, unloads and
uninstalls it with an isolated MIP_DIR.

Every package is tested; the command fails when any of them failed.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.ApplyLevel(logLevel)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath

			return tester.Run(ctx, &options)
		},
	}
)

// Execute runs the mip-test CLI and exits with non-zero status on error.
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
	flags.StringVar(&options.Architecture, "architecture", "", "architecture to test (overrides ARCHITECTURE)")
	flags.StringVar(&options.Package, "package", "", "test only the package with this name")
	flags.StringVar(&options.Matlab, "matlab", "", "MATLAB executable (matlab from PATH by default)")
}
