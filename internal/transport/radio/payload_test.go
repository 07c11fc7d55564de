package radio

import (
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// TestDecodePayload checks the wire layout against a hand-built report.
func TestDecodePayload(t *testing.T) {
	t.Parallel()

	raw := []byte{
		0x02, 0x00, 0x00, 0x00, // wakeup reason and padding
		0x01, 0x00, 0x00, 0x00, // closed
		0x00, 0x00, 0x40, 0x40, // 3.0
	}

	p, err := DecodePayload(raw)
	require.NoError(t, err)
	require.Equal(t, Payload{WakeupReason: 2, State: ReportClosed, Vcc: 3}, p)
	require.Equal(t, domain.SensorClosed, p.State.SensorState())
	require.Equal(t, raw, EncodePayload(p))
}

// TestDecodePayload_TrailingBytes ignores fields appended by newer firmware.
func TestDecodePayload_TrailingBytes(t *testing.T) {
	t.Parallel()

	raw := append(EncodePayload(Payload{WakeupReason: 1, State: ReportOpen, Vcc: 2.9}), 0xde, 0xad, 0xbe, 0xef)

	p, err := DecodePayload(raw)
	require.NoError(t, err)
	require.Equal(t, ReportOpen, p.State)
	require.InDelta(t, 2.9, p.Vcc, 0.0001)
}

// TestDecodePayload_Invalid covers short reports and unknown states.
func TestDecodePayload_Invalid(t *testing.T) {
	t.Parallel()

	_, err := DecodePayload(make([]byte, PayloadSize-1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = DecodePayload(nil)
	require.ErrorIs(t, err, ErrInvalidPayload)

	raw := EncodePayload(Payload{State: ReportUnknown})
	raw[4] = 7

	_, err = DecodePayload(raw)
	require.ErrorIs(t, err, ErrInvalidPayload)
}

// TestReportStateMapping ensures every wire state round-trips through the domain.
func TestReportStateMapping(t *testing.T) {
	t.Parallel()

	for s := ReportOpen; s <= ReportUnknown; s++ {
		require.Equal(t, s, ReportStateFrom(s.SensorState()))
	}
}

// TestSensorIDFromMAC checks the big-endian id derivation.
func TestSensorIDFromMAC(t *testing.T) {
	t.Parallel()

	mac, err := ParseMAC("30:ae:a4:04:3e:08")
	require.NoError(t, err)

	id, err := SensorIDFromMAC(mac)
	require.NoError(t, err)
	require.Equal(t, domain.SensorID(0x30aea4043e08), id)
	require.Equal(t, "30aea4043e08", id.String())
	require.Equal(t, mac, MACFromSensorID(id))

	_, err = SensorIDFromMAC(mac[:4])
	require.ErrorIs(t, err, errInvalidMAC)
}

// TestParseMAC covers both accepted notations and rejects the rest.
func TestParseMAC(t *testing.T) {
	t.Parallel()

	bare, err := ParseMAC("30AEA4043E08")
	require.NoError(t, err)

	colon, err := ParseMAC("30:ae:a4:04:3e:08")
	require.NoError(t, err)
	require.Equal(t, colon, bare)

	for _, s := range []string{"", "30aea4043e0z", "30:ae:a4", "00:00:5e:00:53:01:02:03"} {
		_, err = ParseMAC(s)
		require.Error(t, err, s)
	}
}
