package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// TestRecorder verifies every collector moves as expected.
func TestRecorder(t *testing.T) {
	t.Parallel()

	r := New()

	r.SetState(domain.StateArmed)
	require.InDelta(t, 1, testutil.ToFloat64(r.state.WithLabelValues("Armed")), 0)
	require.InDelta(t, 0, testutil.ToFloat64(r.state.WithLabelValues("Disarmed")), 0)

	r.SetState(domain.StateTriggered)
	require.InDelta(t, 0, testutil.ToFloat64(r.state.WithLabelValues("Armed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.state.WithLabelValues("Triggered")), 0)

	r.SensorReport()
	r.SensorReport()
	r.DroppedMessage()
	r.Trigger()
	r.Sound(domain.SoundAlarmSounding)
	r.SetSensors(3)

	require.InDelta(t, 2, testutil.ToFloat64(r.reports), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.dropped), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.triggers), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.sounds.WithLabelValues("AlarmSounding")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(r.sensors), 0)
}

// TestRecorder_Nil ensures a nil recorder is a no-op.
func TestRecorder_Nil(t *testing.T) {
	t.Parallel()

	var r *Recorder

	require.NotPanics(t, func() {
		r.SetState(domain.StateArmed)
		r.SensorReport()
		r.DroppedMessage()
		r.Trigger()
		r.Sound(domain.SoundAlarmArm)
		r.SetSensors(1)
	})
}

// TestRecorder_Handler checks the exposition output names the controller metrics.
func TestRecorder_Handler(t *testing.T) {
	t.Parallel()

	r := New()
	r.SetState(domain.StateDisarmed)
	r.DroppedMessage()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `alarm_controller_state{state="Disarmed"} 1`)
	require.Contains(t, body, "alarm_controller_dropped_messages_total 1")
}
