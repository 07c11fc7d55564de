package reporter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/transport/radio"
)

// TestBuild assembles a payload from operator input.
func TestBuild(t *testing.T) {
	t.Parallel()

	mac, payload, err := Build(&Options{MAC: "30:ae:a4:04:3e:08", State: "open", Vcc: 3.1})
	require.NoError(t, err)
	require.Equal(t, "30:ae:a4:04:3e:08", mac.String())
	require.Equal(t, radio.ReportOpen, payload.State)
	require.InDelta(t, 3.1, payload.Vcc, 0.0001)

	id, err := radio.SensorIDFromMAC(mac)
	require.NoError(t, err)
	require.Equal(t, domain.SensorID(0x30aea4043e08), id)
}

// TestBuild_Rejects refuses bad addresses and states.
func TestBuild_Rejects(t *testing.T) {
	t.Parallel()

	_, _, err := Build(&Options{MAC: "30aea4", State: "Open"})
	require.Error(t, err)

	_, _, err = Build(&Options{MAC: "30aea4043e08", State: "ajar"})
	require.Error(t, err)
}

// TestRun_NoBroker fails without touching the network.
func TestRun_NoBroker(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, &config.Config{ServerAddress: "127.0.0.1:8080"}))

	err := Run(context.Background(), &Options{ConfigPath: path, MAC: "30aea4043e08", State: "Closed"})
	require.ErrorIs(t, err, errNoBroker)
}
