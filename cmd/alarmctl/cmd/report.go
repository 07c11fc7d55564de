package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-controller/internal/service/reporter"
)

var (
	// broker overrides mqtt.broker from the configuration file.
	broker string
	// vcc is the simulated battery voltage.
	vcc float32

	// reportCmd publishes a fake sensor report.
	reportCmd = &cobra.Command{
		Use:   "report <mac> <Open|Closed|Fault|Unknown>",
		Short: "Publish one contact sensor report to the MQTT broker.",
		Long: `Publishes a report exactly as a contact sensor would, which helps to
enroll and test sensors. The MAC may be 12 hex digits or colon separated.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // MAC and state.
		RunE: func(cmd *cobra.Command, args []string) error {
			return reporter.Run(cmd.Context(), &reporter.Options{
				ConfigPath: configPath,
				Broker:     broker,
				MAC:        args[0],
				State:      args[1],
				Vcc:        vcc,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	reportCmd.Flags().StringVarP(&broker, "broker", "b", "", "broker URL, overrides mqtt.broker from config")
	reportCmd.Flags().Float32Var(&vcc, "vcc", 3.0, "reported battery voltage") //nolint:mnd // Fresh lithium cell.

	rootCmd.AddCommand(reportCmd)
}
