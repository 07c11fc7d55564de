package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/service/client"
	"github.com/oshokin/alarm-controller/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// serverAddress overrides server_addr from the configuration file.
	serverAddress string

	// rootCmd groups the operator commands.
	rootCmd = &cobra.Command{
		Use:   "alarmctl",
		Short: "Operate the home alarm controller.",
		Long: `Command line client of the alarm controller.

Arms and disarms the alarm, lists and edits contact sensors, shows the
activity log and watches the alarm state. Server address and timeouts come
from the configuration file unless --server is given.`,
		SilenceUsage: true,
	}

	// stateCmd prints the alarm state.
	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Show the alarm state and the operations it accepts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.ShowState(cmd.Context(), clientOptions(cmd))
		},
	}

	// armCmd arms the alarm.
	armCmd = &cobra.Command{
		Use:   "arm",
		Short: "Arm the alarm, retrying until the controller confirms it.",
		Long: `Arms the alarm. The controller refuses while an enabled sensor is open,
faulty or silent for too long; that refusal ends the command with an error.
Connection failures are retried every second until the alarm is armed or
the command is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.Operate(cmd.Context(), clientOptions(cmd), domain.OperationArm)
		},
	}

	// disarmCmd disarms the alarm.
	disarmCmd = &cobra.Command{
		Use:   "disarm",
		Short: "Disarm and silence the alarm, retrying until the controller confirms it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.Operate(cmd.Context(), clientOptions(cmd), domain.OperationDisarm)
		},
	}

	// eventsCmd prints the activity log.
	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Show the activity log, oldest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.ListEvents(cmd.Context(), clientOptions(cmd))
		},
	}
)

// Execute runs the alarmctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// clientOptions collects the connection flags.
func clientOptions(cmd *cobra.Command) *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "controller address, overrides server_addr from config")

	rootCmd.AddCommand(stateCmd, armCmd, disarmCmd, eventsCmd)
}
