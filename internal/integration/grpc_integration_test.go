package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/service/common"
	"github.com/oshokin/alarm-controller/internal/service/controller"
	"github.com/oshokin/alarm-controller/internal/transport/radio"
)

// frontDoor is the hardware address of the simulated sensor.
var frontDoor = net.HardwareAddr{0x30, 0xae, 0xa4, 0x04, 0x3e, 0x08}

// controllerEnv is a running controller with its files and loopback radio.
type controllerEnv struct {
	addr    string
	cfgPath string
	dir     string
	radio   *radio.Loopback
	stop    func()
}

// reservePort returns a free local address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startController runs the controller with a temporary config and a loopback radio.
func startController(t *testing.T) *controllerEnv {
	t.Helper()

	env := &controllerEnv{
		addr:  reservePort(t),
		dir:   t.TempDir(),
		radio: radio.NewLoopback(),
	}
	env.cfgPath = filepath.Join(env.dir, "settings.yaml")

	require.NoError(t, config.Save(env.cfgPath, &config.Config{
		ServerAddress:   env.addr,
		Timeout:         3 * time.Second,
		LogLevel:        "warn",
		StateFile:       filepath.Join(env.dir, "alarm_state.dat"),
		SensorsFile:     filepath.Join(env.dir, "sensors.json"),
		ActivityLogFile: filepath.Join(env.dir, "activity.log"),
		Alarm: config.Alarm{
			TickInterval:  5 * time.Millisecond,
			SweepInterval: 50 * time.Millisecond,
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- controller.Run(ctx, &controller.Options{
			ConfigPath: env.cfgPath,
			Source:     env.radio,
		})
	}()

	// The loopback accepts reports once Run has started the transport.
	require.Eventually(t, func() bool {
		return env.radio.Report(frontDoor, radio.Payload{State: radio.ReportClosed, Vcc: 3}) == nil
	}, 5*time.Second, 10*time.Millisecond)

	env.stop = func() {
		cancel()
		require.NoError(t, <-done)
	}

	return env
}

// dial connects an operator client to env.
func (env *controllerEnv) dial(t *testing.T) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), env.addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// TestController_ArmTriggerDisarm drives a full alarm cycle through gRPC and the radio.
func TestController_ArmTriggerDisarm(t *testing.T) {
	t.Parallel()

	env := startController(t)
	c := env.dial(t)
	ctx := context.Background()

	id, err := radio.SensorIDFromMAC(frontDoor)
	require.NoError(t, err)

	// The first report enrolls the sensor disabled.
	require.Eventually(t, func() bool {
		sensor, err := c.Sensor(ctx, id)
		return err == nil && sensor.State == domain.SensorClosed
	}, 5*time.Second, 10*time.Millisecond)

	enabled, name := true, "Front door"
	sensor, err := c.UpdateSensor(ctx, domain.SensorUpdate{ID: id, Name: &name, Enabled: &enabled})
	require.NoError(t, err)
	require.True(t, sensor.Enabled)

	actor := &domain.Actor{Hostname: "test-host", Username: "test-user"}

	state, err := c.Operate(ctx, domain.OperationArm, actor)
	require.NoError(t, err)
	require.Equal(t, domain.StateArmed, state)

	// Locked while armed.
	_, err = c.UpdateSensor(ctx, domain.SensorUpdate{ID: id, Name: &name})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.NoError(t, env.radio.Report(frontDoor, radio.Payload{State: radio.ReportOpen, Vcc: 3}))

	require.Eventually(t, func() bool {
		state, err := c.State(ctx)
		return err == nil && state == domain.StateTriggered
	}, 5*time.Second, 10*time.Millisecond)

	state, err = c.Operate(ctx, domain.OperationDisarm, actor)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisarmed, state)

	events, err := c.Events(ctx)
	require.NoError(t, err)

	types := make([]domain.EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}

	require.Subset(t, types, []domain.EventType{
		domain.EventSystemStart,
		domain.EventNewSensor,
		domain.EventAlarmArmed,
		domain.EventAlarmTriggered,
		domain.EventAlarmDisarmed,
	})

	env.stop()

	// Shutdown flushes the activity log and leaves the state on disk.
	for _, name := range []string{"alarm_state.dat", "sensors.json", "activity.log"} {
		_, err = os.Stat(filepath.Join(env.dir, name))
		require.NoError(t, err, name)
	}
}

// TestController_ArmRefusedWhileOpen keeps the alarm disarmed with an open enabled sensor.
func TestController_ArmRefusedWhileOpen(t *testing.T) {
	t.Parallel()

	env := startController(t)
	defer env.stop()

	c := env.dial(t)
	ctx := context.Background()

	id, err := radio.SensorIDFromMAC(frontDoor)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := c.Sensor(ctx, id)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	enabled := true
	_, err = c.UpdateSensor(ctx, domain.SensorUpdate{ID: id, Enabled: &enabled})
	require.NoError(t, err)

	require.NoError(t, env.radio.Report(frontDoor, radio.Payload{State: radio.ReportOpen, Vcc: 3}))

	require.Eventually(t, func() bool {
		sensor, err := c.Sensor(ctx, id)
		return err == nil && sensor.State == domain.SensorOpen
	}, 5*time.Second, 10*time.Millisecond)

	_, err = c.Operate(ctx, domain.OperationArm, nil)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	state, err := c.State(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisarmed, state)
}

// TestController_RestartKeepsArmed restores the armed state from disk.
func TestController_RestartKeepsArmed(t *testing.T) {
	t.Parallel()

	env := startController(t)
	c := env.dial(t)
	ctx := context.Background()

	id, err := radio.SensorIDFromMAC(frontDoor)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sensor, err := c.Sensor(ctx, id)
		return err == nil && sensor.State == domain.SensorClosed
	}, 5*time.Second, 10*time.Millisecond)

	enabled := true
	_, err = c.UpdateSensor(ctx, domain.SensorUpdate{ID: id, Enabled: &enabled})
	require.NoError(t, err)

	state, err := c.Operate(ctx, domain.OperationArm, nil)
	require.NoError(t, err)
	require.Equal(t, domain.StateArmed, state)

	env.stop()

	ctx2, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- controller.Run(ctx2, &controller.Options{ConfigPath: env.cfgPath, Source: radio.NewLoopback()})
	}()

	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	c2, err := common.Dial(ctx, env.addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c2.Close()
	}()

	require.Eventually(t, func() bool {
		state, err := c2.State(ctx)
		return err == nil && state == domain.StateArmed
	}, 5*time.Second, 20*time.Millisecond)
}
