package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Bad broker.
	require.Error(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		MQTT:          MQTT{Broker: "not a url"},
	}))

	// Armed timeout longer than disarmed one.
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Alarm: Alarm{
			ArmedTimeout:    3 * time.Minute,
			DisarmedTimeout: time.Minute,
		},
	}), errInvalidTimings)

	// Negative siren line.
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Siren:         Siren{Line: -1},
	}), errInvalidSirenLine)

	// Okay with broker.
	require.NoError(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		MQTT:          MQTT{Broker: "tcp://127.0.0.1:1883"},
	}))
}

// TestValidate_Defaults ensures omitted values are filled with package defaults.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	settings := &Config{
		ServerAddress: "127.0.0.1:50051",
		MQTT:          MQTT{TopicPrefix: "/home/sensors/"},
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultStateFilename, settings.StateFile)
	require.Equal(t, DefaultSensorsFilename, settings.SensorsFile)
	require.Equal(t, DefaultActivityLogFilename, settings.ActivityLogFile)
	require.Equal(t, DefaultTickInterval, settings.Alarm.TickInterval)
	require.Equal(t, DefaultSweepInterval, settings.Alarm.SweepInterval)
	require.Equal(t, time.Minute, settings.Alarm.ArmedTimeout)
	require.Equal(t, 2*time.Minute, settings.Alarm.DisarmedTimeout)
	require.Equal(t, 30*time.Second, settings.Alarm.FaultChimeInterval)
	require.Equal(t, 5*time.Minute, settings.Alarm.FlushInterval)
	require.Equal(t, DefaultClientID, settings.MQTT.ClientID)
	require.Equal(t, "home/sensors", settings.MQTT.TopicPrefix)
	require.Equal(t, uint64(DefaultConnectRetries), settings.MQTT.ConnectRetries)
	require.Equal(t, DefaultSirenChip, settings.Siren.Chip)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerAddress:  "127.0.0.1:50051",
		MetricsAddress: "127.0.0.1:9100",
		LogLevel:       "debug",
		MQTT: MQTT{
			Broker:   "tcp://broker.local:1883",
			Username: "alarm",
		},
		Siren: Siren{
			Enabled: true,
			Line:    17,
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.MetricsAddress, loaded.MetricsAddress)
	require.Equal(t, settings.LogLevel, loaded.LogLevel)
	require.Equal(t, settings.MQTT, loaded.MQTT)
	require.Equal(t, settings.Siren, loaded.Siren)
	require.Equal(t, settings.Alarm, loaded.Alarm)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestSave_NilConfig asserts that a nil configuration is rejected.
func TestSave_NilConfig(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil), errConfigIsNotSet)
}
