package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/service/client"
)

var (
	// sensorName is the new display name given to update-sensor.
	sensorName string
	// sensorEnabled is the new enabled flag given to update-sensor.
	sensorEnabled bool

	// errNothingToUpdate is returned when update-sensor gets neither flag.
	errNothingToUpdate = errors.New("nothing to update: pass --name and/or --enabled")

	// sensorsCmd lists the registry.
	sensorsCmd = &cobra.Command{
		Use:   "sensors",
		Short: "List known contact sensors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.ListSensors(cmd.Context(), clientOptions(cmd))
		},
	}

	// sensorCmd shows one sensor.
	sensorCmd = &cobra.Command{
		Use:   "sensor <id>",
		Short: "Show one contact sensor by its hex id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseSensorID(args[0])
			if err != nil {
				return err
			}

			return client.ShowSensor(cmd.Context(), clientOptions(cmd), id)
		},
	}

	// updateSensorCmd renames, enables or disables a sensor.
	updateSensorCmd = &cobra.Command{
		Use:   "update-sensor <id>",
		Short: "Rename, enable or disable a contact sensor.",
		Long: `Changes the name and/or the enabled flag of a sensor. New sensors join
the registry disabled; enable them here once they are mounted. The controller
refuses changes while the alarm is armed or triggered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := sensorUpdate(cmd, args[0])
			if err != nil {
				return err
			}

			return client.UpdateSensor(cmd.Context(), clientOptions(cmd), update)
		},
	}
)

// sensorUpdate builds the update from the flags the user actually set.
func sensorUpdate(cmd *cobra.Command, rawID string) (domain.SensorUpdate, error) {
	id, err := domain.ParseSensorID(rawID)
	if err != nil {
		return domain.SensorUpdate{}, err
	}

	update := domain.SensorUpdate{ID: id}

	if cmd.Flags().Changed("name") {
		name := sensorName
		update.Name = &name
	}

	if cmd.Flags().Changed("enabled") {
		enabled := sensorEnabled
		update.Enabled = &enabled
	}

	if update.Name == nil && update.Enabled == nil {
		return domain.SensorUpdate{}, errNothingToUpdate
	}

	return update, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	updateSensorCmd.Flags().StringVarP(&sensorName, "name", "n", "", "display name")
	updateSensorCmd.Flags().BoolVarP(&sensorEnabled, "enabled", "e", false, "whether the sensor takes part in arming")

	rootCmd.AddCommand(sensorsCmd, sensorCmd, updateSensorCmd)
}
