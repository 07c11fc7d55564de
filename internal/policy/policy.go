package policy

import (
	"context"
	"time"

	"github.com/oshokin/alarm-controller/internal/clock"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
)

// EventLogger records activity entries. The activity log implements it.
type EventLogger interface {
	LogEvent(ctx context.Context, eventType domain.EventType, sensorID domain.SensorID)
}

// Config holds the policy timings.
type Config struct {
	// ArmedTimeout is the staleness limit of a sensor while armed.
	ArmedTimeout time.Duration
	// DisarmedTimeout is the staleness limit of a sensor in any other state.
	DisarmedTimeout time.Duration
	// FaultChimeInterval is the minimum gap between fault chimes of one sensor.
	FaultChimeInterval time.Duration
}

// Policy maps sensor reports and staleness to the actions the controller must
// apply. Apart from the activity log entries it writes and the
// FaultLastHandled stamp on the sensor it is given, it has no side effects.
type Policy struct {
	// cfg holds the timings.
	cfg Config
	// clock is the time source for staleness and rate limiting.
	clock clock.Clock
	// log receives the activity entries.
	log EventLogger
	// startedAt is the boot time. Sensors loaded from the registry have
	// never reported; their staleness is measured from boot.
	startedAt time.Time
}

// New creates a Policy. The boot time is read from c.
func New(cfg Config, c clock.Clock, log EventLogger) *Policy {
	return &Policy{
		cfg:       cfg,
		clock:     c,
		log:       log,
		startedAt: c.Now(),
	}
}

// HandleSensorState decides what a report of newState means for sensor in alarmState.
// The caller records the new state on the sensor afterwards.
func (p *Policy) HandleSensorState(
	ctx context.Context,
	sensor *domain.Sensor,
	newState domain.SensorState,
	alarmState domain.State,
) domain.Actions {
	var actions domain.Actions

	// Disabled sensors are recorded but otherwise ignored.
	if !sensor.Enabled {
		return actions
	}

	switch alarmState {
	case domain.StateDisarmed:
		p.handleDisarmed(ctx, &actions, sensor, newState)
	case domain.StateArmed:
		if newState == domain.SensorOpen || newState == domain.SensorFault {
			p.escalate(ctx, &actions, sensor, newState)
		}
	case domain.StateArming, domain.StateTriggered:
	}

	return actions
}

// handleDisarmed chimes on open/close transitions of a sensor that reported
// before, and on faults within the rate limit.
func (p *Policy) handleDisarmed(
	ctx context.Context,
	actions *domain.Actions,
	sensor *domain.Sensor,
	newState domain.SensorState,
) {
	switch {
	case sensor.State != domain.SensorOpen && newState == domain.SensorOpen && sensor.Reported():
		actions.PlaySound(domain.SoundSensorChimeOpened)
		p.log.LogEvent(ctx, domain.EventSensorOpened, sensor.ID)
	case sensor.State != domain.SensorClosed && newState == domain.SensorClosed && sensor.Reported():
		actions.PlaySound(domain.SoundSensorChimeClosed)
		p.log.LogEvent(ctx, domain.EventSensorClosed, sensor.ID)
	case newState == domain.SensorFault:
		p.faultChime(actions, sensor)
		p.log.LogEvent(ctx, domain.EventSensorFault, sensor.ID)
	}
}

// escalate triggers the alarm for an open or faulted sensor while armed.
// A faulted sensor is as dangerous as an open one.
func (p *Policy) escalate(
	ctx context.Context,
	actions *domain.Actions,
	sensor *domain.Sensor,
	newState domain.SensorState,
) {
	logger.WarnKV(ctx, "Alarm triggered by sensor", "sensor_id", sensor.ID, "name", sensor.Name, "state", newState)

	actions.TriggerAlarm = true
	p.log.LogEvent(ctx, domain.EventAlarmTriggered, sensor.ID)
}

// faultChime requests the fault chime unless one was requested for this
// sensor within the fault chime interval.
func (p *Policy) faultChime(actions *domain.Actions, sensor *domain.Sensor) {
	now := p.clock.Now()

	if !sensor.FaultLastHandled.IsZero() && now.Sub(sensor.FaultLastHandled) < p.cfg.FaultChimeInterval {
		return
	}

	actions.PlaySound(domain.SoundSensorFault)
	sensor.FaultLastHandled = now
}

// CheckSensor runs the staleness sweep for one sensor.
func (p *Policy) CheckSensor(ctx context.Context, sensor *domain.Sensor, alarmState domain.State) domain.Actions {
	var actions domain.Actions

	if !sensor.Enabled {
		return actions
	}

	timeout := p.cfg.DisarmedTimeout
	if alarmState == domain.StateArmed {
		// Staleness is more dangerous while armed.
		timeout = p.cfg.ArmedTimeout
	}

	elapsed := clock.Since(p.clock, p.lastSeen(sensor))
	if elapsed < timeout {
		// Sensors that keep reporting Fault never go stale.
		if sensor.State == domain.SensorFault && alarmState == domain.StateDisarmed {
			p.faultChime(&actions, sensor)
		}

		return actions
	}

	logger.WarnKV(ctx, "Sensor has not reported in time",
		"sensor_id", sensor.ID, "name", sensor.Name, "elapsed", elapsed.Truncate(time.Second), "alarm_state", alarmState)

	switch alarmState {
	case domain.StateArming:
		p.cancelArming(ctx, &actions, sensor)
		p.faultChime(&actions, sensor)
	case domain.StateDisarmed:
		p.faultChime(&actions, sensor)
	case domain.StateArmed:
		actions.TriggerAlarm = true
		p.log.LogEvent(ctx, domain.EventAlarmTriggered, sensor.ID)
	case domain.StateTriggered:
	}

	return actions
}

// cancelArming aborts arming because a sensor went stale; the system then
// behaves as disarmed.
func (p *Policy) cancelArming(ctx context.Context, actions *domain.Actions, sensor *domain.Sensor) {
	logger.WarnKV(ctx, "Arming cancelled by stale sensor", "sensor_id", sensor.ID)

	actions.CancelArming = true
	p.log.LogEvent(ctx, domain.EventAlarmArmingFailed, sensor.ID)
}

// lastSeen returns the reference time of the staleness check.
func (p *Policy) lastSeen(sensor *domain.Sensor) time.Time {
	if sensor.LastUpdate.After(p.startedAt) {
		return sensor.LastUpdate
	}

	return p.startedAt
}

// CanArm holds iff at least one sensor is enabled and every enabled sensor is closed.
func (p *Policy) CanArm(sensors []*domain.Sensor) bool {
	enabled := 0

	for _, sensor := range sensors {
		if !sensor.Enabled {
			continue
		}

		if sensor.State != domain.SensorClosed {
			return false
		}

		enabled++
	}

	return enabled > 0
}

// ValidOperations lists what a user may request in alarmState.
func (p *Policy) ValidOperations(sensors []*domain.Sensor, alarmState domain.State) []domain.Operation {
	if alarmState != domain.StateDisarmed {
		return []domain.Operation{domain.OperationDisarm}
	}

	if p.CanArm(sensors) {
		return []domain.Operation{domain.OperationArm}
	}

	return []domain.Operation{}
}

// CanModifySensors tells whether registry edits are allowed in alarmState.
func (p *Policy) CanModifySensors(alarmState domain.State) bool {
	return alarmState == domain.StateDisarmed
}
