package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-controller/internal/service/checker"
)

var (
	// pollInterval is the delay between two state checks.
	pollInterval = checker.DefaultPollInterval
	// exitOnTrigger stops watching when the alarm triggers.
	exitOnTrigger bool

	// watchCmd polls the controller.
	watchCmd = &cobra.Command{
		Use:   "watch [-- command [args...]]",
		Short: "Watch the alarm state and react when it triggers.",
		Long: `Polls the controller and logs every alarm state change.

A command given after "--" is started whenever the alarm becomes Triggered,
for example to send a notification:

  alarmctl watch -- notify-send "Alarm!"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var hook []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				hook = args[dash:]
			}

			return checker.Run(cmd.Context(), &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  pollInterval,
				ExitOnTrigger: exitOnTrigger,
				OnTrigger:     hook,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	watchCmd.Flags().DurationVarP(&pollInterval, "interval", "i", checker.DefaultPollInterval, "polling interval")
	watchCmd.Flags().BoolVar(&exitOnTrigger, "exit-on-trigger", false, "stop watching once the alarm triggers")

	rootCmd.AddCommand(watchCmd)
}
