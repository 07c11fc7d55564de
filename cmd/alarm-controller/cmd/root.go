package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-controller/internal/config"
	"github.com/oshokin/alarm-controller/internal/service/controller"
	"github.com/oshokin/alarm-controller/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where alarm state is persisted.
	stateFile string

	// rootCmd represents the base command for running the controller.
	rootCmd = &cobra.Command{
		Use:   "alarm-controller [listen-address]",
		Short: "Run the home alarm controller.",
		Long: `Starts the alarm controller: it receives contact sensor reports over MQTT,
decides when to arm, trigger and sound the alarm, and keeps an activity log.

Operators talk to it over gRPC (see alarmctl). Only the port from server_addr
config is used for listening (e.g., :8080); the listen address argument
overrides it (e.g., :9090, 0.0.0.0:8080).
The alarm state survives restarts: a controller that was armed or triggered
comes back armed or triggered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &controller.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
			}

			return controller.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-controller CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", "", "path to persist alarm state, overrides state_file from config")
}
