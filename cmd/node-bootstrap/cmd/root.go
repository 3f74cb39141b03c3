package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/node-bootstrap/internal/logger"
	"github.com/oshokin/node-bootstrap/internal/service/bootstrap"
	"github.com/oshokin/node-bootstrap/internal/version"
)

var (
	// logLevel is the minimum level for console logging.
	logLevel string

	// rootCmd represents the base command running the bootstrap agent.
	rootCmd = &cobra.Command{
		Use:   "node-bootstrap",
		Short: "Provision and start the edge node services.",
		Long: `Bootstraps an edge node from environment configuration: prepares the
working directory, downloads the architecture-appropriate service binaries,
renders their configuration, launches them as detached background processes
and keeps a liveness HTTP endpoint up for the process lifetime.

All settings come from environment variables (UPLOAD_URL, PROJECT_URL,
AUTO_ACCESS, FILE_PATH, SUB_PATH, UUID, NEZHA_SERVER, NEZHA_PORT, NEZHA_KEY,
ARGO_DOMAIN, ARGO_AUTH, NAME, SERVER_PORT/PORT); every variable is optional
and defaulted.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			return bootstrap.Run(ctx, &bootstrap.Options{})
		},
	}
)

// Execute runs the node-bootstrap CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "minimum log level (debug, info, warn, error)")
}
