package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// newUpdateCommand returns a fresh command with the update-sensor flags.
func newUpdateCommand(name *string, enabled *bool) *cobra.Command {
	c := &cobra.Command{Use: "update-sensor"}
	c.Flags().StringVarP(name, "name", "n", "", "")
	c.Flags().BoolVarP(enabled, "enabled", "e", false, "")

	return c
}

// TestSensorUpdate_OnlyChangedFlags leaves untouched fields nil.
//
//nolint:paralleltest // Flags bind package-level variables.
func TestSensorUpdate_OnlyChangedFlags(t *testing.T) {
	c := newUpdateCommand(&sensorName, &sensorEnabled)
	require.NoError(t, c.ParseFlags([]string{"--enabled=true"}))

	update, err := sensorUpdate(c, "30aea4043e08")
	require.NoError(t, err)
	require.Equal(t, domain.SensorID(0x30aea4043e08), update.ID)
	require.Nil(t, update.Name)
	require.NotNil(t, update.Enabled)
	require.True(t, *update.Enabled)
}

// TestSensorUpdate_Rejects refuses bad ids and empty updates.
//
//nolint:paralleltest // Flags bind package-level variables.
func TestSensorUpdate_Rejects(t *testing.T) {
	c := newUpdateCommand(&sensorName, &sensorEnabled)
	require.NoError(t, c.ParseFlags(nil))

	_, err := sensorUpdate(c, "30aea4043e08")
	require.ErrorIs(t, err, errNothingToUpdate)

	_, err = sensorUpdate(c, "not-hex")
	require.ErrorIs(t, err, domain.ErrInvalidSensorID)
}
