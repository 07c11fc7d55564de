package client

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// TestTargetState maps operations onto the state that confirms them.
func TestTargetState(t *testing.T) {
	t.Parallel()

	state, err := targetState(domain.OperationArm)
	require.NoError(t, err)
	require.Equal(t, domain.StateArmed, state)

	state, err = targetState(domain.OperationDisarm)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisarmed, state)

	_, err = targetState(domain.Operation(9))
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
}

// TestRetryable separates refusals from transient failures.
func TestRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, retryable(status.Error(codes.Unavailable, "connection refused")))
	require.True(t, retryable(errors.New("broken pipe")))
	require.False(t, retryable(status.Error(codes.FailedPrecondition, "alarm cannot be armed now")))
	require.False(t, retryable(status.Error(codes.InvalidArgument, "bad operation")))
	require.False(t, retryable(context.Canceled))
}

// TestWriteSensors renders never-reported sensors distinctly.
func TestWriteSensors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := WriteSensors(&buf, []domain.Sensor{
		{ID: 0x30aea4043e08, Name: "Front door", Enabled: true, State: domain.SensorClosed,
			LastUpdate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{ID: 0xabc, Name: "Garage"},
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "30aea4043e08")
	require.Contains(t, out, "2024-05-01T10:00:00Z")
	require.Contains(t, out, "never")
}

// TestWriteEvents prints a dash for system-level events.
func TestWriteEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := WriteEvents(&buf, []domain.Event{
		{ID: 1, Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Type: domain.EventSystemStart},
		{ID: 2, Time: time.Date(2024, 5, 1, 10, 1, 0, 0, time.UTC), Type: domain.EventSensorOpened, SensorID: 0xabc},
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, domain.EventSystemStart.String())
	require.Contains(t, out, "abc")
	require.Contains(t, out, " - ")
}

// TestOperate_MissingConfig fails before dialing.
func TestOperate_MissingConfig(t *testing.T) {
	t.Parallel()

	err := Operate(context.Background(), &Options{ConfigPath: t.TempDir() + "/missing.yaml"}, domain.OperationArm)
	require.Error(t, err)
}
