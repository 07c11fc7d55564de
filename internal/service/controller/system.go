package controller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/oshokin/alarm-controller/internal/clock"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
	"github.com/oshokin/alarm-controller/internal/metrics"
	"github.com/oshokin/alarm-controller/internal/policy"
	sensorsrepo "github.com/oshokin/alarm-controller/internal/repository/sensors"
	staterepo "github.com/oshokin/alarm-controller/internal/repository/state"
	"github.com/oshokin/alarm-controller/internal/sound"
	"github.com/oshokin/alarm-controller/internal/transport/radio"
)

// ErrQueueFull is returned when a sensor report is dropped because the loop is behind.
var ErrQueueFull = errors.New("sensor report queue is full")

// ActivityLog is the event history the controller writes to.
// *activitylog.Log implements it.
type ActivityLog interface {
	Begin(ctx context.Context) error
	LogEvent(ctx context.Context, eventType domain.EventType, sensorID domain.SensorID)
	OnTick(ctx context.Context)
	Flush(ctx context.Context) error
	Events() []domain.Event
}

// Dependencies are the collaborators of an AlarmSystem.
type Dependencies struct {
	// Policy decides the actions for reports and staleness.
	Policy *policy.Policy
	// Log records notable events. The policy writes to the same log.
	Log ActivityLog
	// State persists the alarm state.
	State staterepo.Repository
	// Sensors persists the sensor registry.
	Sensors sensorsrepo.Repository
	// Player plays the requested sounds.
	Player sound.Player
	// Clock is the time source.
	Clock clock.Clock
	// Metrics is optional.
	Metrics *metrics.Recorder
	// SweepInterval is the cadence of the resound check and the staleness sweep.
	SweepInterval time.Duration
}

// AlarmSystem owns the alarm state and the sensor registry.
//
// Every method except OnRadioReceive must be called from the loop goroutine.
// OnRadioReceive may run concurrently with it and only touches the queue.
type AlarmSystem struct {
	// policy decides what reports mean.
	policy *policy.Policy
	// log is the activity log.
	log ActivityLog
	// stateRepo persists the alarm state.
	stateRepo staterepo.Repository
	// registry persists sensor names and enabled flags.
	registry sensorsrepo.Repository
	// player plays sounds.
	player sound.Player
	// clock is the time source.
	clock clock.Clock
	// metrics may be nil.
	metrics *metrics.Recorder
	// sweepInterval is the slow cadence.
	sweepInterval time.Duration

	// queue hands reports from the transport to the loop.
	queue Queue
	// state is the current alarm state.
	state domain.State
	// sensors is the registry, keyed by id.
	sensors map[domain.SensorID]*domain.Sensor
	// lastSweep is when the slow cadence last ran.
	lastSweep time.Time
}

// NewAlarmSystem creates a disarmed system with an empty registry. Call Begin before use.
func NewAlarmSystem(deps Dependencies) *AlarmSystem {
	return &AlarmSystem{
		policy:        deps.Policy,
		log:           deps.Log,
		stateRepo:     deps.State,
		registry:      deps.Sensors,
		player:        deps.Player,
		clock:         deps.Clock,
		metrics:       deps.Metrics,
		sweepInterval: deps.SweepInterval,
		state:         domain.StateDisarmed,
		sensors:       make(map[domain.SensorID]*domain.Sensor),
	}
}

// Begin restores the activity log, the alarm state and the sensor registry,
// then records SystemStart. Failures are logged and leave safe defaults.
func (s *AlarmSystem) Begin(ctx context.Context) {
	if err := s.log.Begin(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to restore activity log", "error", err)
	}

	s.restoreState(ctx)

	sensors, err := s.registry.Load(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to load sensor registry", "error", err)
	}

	for _, sensor := range sensors {
		s.sensors[sensor.ID] = &sensor
	}

	s.metrics.SetState(s.state)
	s.metrics.SetSensors(len(s.sensors))
	s.lastSweep = s.clock.Now()
	s.log.LogEvent(ctx, domain.EventSystemStart, 0)

	logger.InfoKV(ctx, "Alarm system started", "state", s.state, "sensors", len(s.sensors))
}

// restoreState loads the persisted alarm state, falling back to Disarmed.
func (s *AlarmSystem) restoreState(ctx context.Context) {
	value, err := s.stateRepo.Load(ctx)

	switch {
	case errors.Is(err, staterepo.ErrNotFound):
		logger.Info(ctx, "No persisted alarm state, starting disarmed")
	case err != nil:
		logger.ErrorKV(ctx, "Failed to load alarm state, starting disarmed", "error", err)
	default:
		state, ok := value.State()
		if !ok {
			logger.WarnKV(ctx, "Unrecognised persisted alarm state, starting disarmed", "value", value)

			break
		}

		s.state = state
	}

	switch s.state {
	case domain.StateArmed:
		s.log.LogEvent(ctx, domain.EventAlarmArmed, 0)
	case domain.StateTriggered:
		s.log.LogEvent(ctx, domain.EventAlarmTriggered, 0)
	default:
	}
}

// OnRadioReceive queues one raw report without blocking.
// It is the transport's Handler and the only method safe to call outside the loop.
func (s *AlarmSystem) OnRadioReceive(ctx context.Context, sender net.HardwareAddr, payload []byte) error {
	id, err := radio.SensorIDFromMAC(sender)
	if err != nil {
		logger.ErrorKV(ctx, "Dropping report from invalid sender", "error", err)

		return fmt.Errorf("decode sender: %w", err)
	}

	report, err := radio.DecodePayload(payload)
	if err != nil {
		logger.ErrorKV(ctx, "Dropping malformed report", "sensor", id, "error", err)

		return fmt.Errorf("decode report from %s: %w", id, err)
	}

	msg := Message{
		SensorID: id,
		State:    report.State.SensorState(),
		Vcc:      report.Vcc,
	}

	if !s.queue.TryPush(msg) {
		s.metrics.DroppedMessage()
		logger.ErrorKV(ctx, "Report queue full, dropping report", "sensor", id, "state", msg.State)

		return ErrQueueFull
	}

	return nil
}

// OnTick runs one scheduler iteration: at most one queued report, the
// sound player, the slow cadence when due, and the activity log.
func (s *AlarmSystem) OnTick(ctx context.Context) {
	if msg, ok := s.queue.Pop(); ok {
		s.handleMessage(ctx, msg)
	}

	s.player.OnTick(ctx)

	if now := s.clock.Now(); now.Sub(s.lastSweep) >= s.sweepInterval {
		s.lastSweep = now
		s.sweep(ctx)
	}

	s.log.OnTick(ctx)
}

// handleMessage applies one report to the registry.
func (s *AlarmSystem) handleMessage(ctx context.Context, msg Message) {
	s.metrics.SensorReport()

	sensor, ok := s.sensors[msg.SensorID]
	if !ok {
		sensor = s.addSensor(ctx, msg.SensorID)
	}

	logger.DebugKV(ctx, "Sensor report", "sensor", sensor.ID, "state", msg.State, "vcc", msg.Vcc)

	actions := s.policy.HandleSensorState(ctx, sensor, msg.State, s.state)
	s.apply(ctx, sensor, actions)

	sensor.State = msg.State
	sensor.LastUpdate = s.clock.Now()
}

// addSensor registers a sensor seen for the first time. It starts disabled and unnamed.
func (s *AlarmSystem) addSensor(ctx context.Context, id domain.SensorID) *domain.Sensor {
	sensor := &domain.Sensor{ID: id}
	s.sensors[id] = sensor

	if err := s.registry.Store(ctx, *sensor); err != nil {
		logger.ErrorKV(ctx, "Failed to store new sensor", "sensor", id, "error", err)
	}

	s.log.LogEvent(ctx, domain.EventNewSensor, id)
	s.metrics.SetSensors(len(s.sensors))

	logger.InfoKV(ctx, "New sensor discovered", "sensor", id)

	return sensor
}

// sweep re-sounds a triggered alarm and checks every sensor for staleness.
func (s *AlarmSystem) sweep(ctx context.Context) {
	if s.state == domain.StateTriggered && !s.player.IsPlaying() {
		s.play(ctx, domain.SoundAlarmSounding)
	}

	for _, sensor := range s.sortedSensors() {
		actions := s.policy.CheckSensor(ctx, sensor, s.state)
		s.apply(ctx, sensor, actions)
	}
}

// apply carries out the policy's actions: cancel arming, then trigger, then sound.
func (s *AlarmSystem) apply(ctx context.Context, sensor *domain.Sensor, actions domain.Actions) {
	if actions.CancelArming {
		s.cancelArming(ctx, sensor)
	}

	if actions.TriggerAlarm {
		s.trigger(ctx, sensor)
	}

	if actions.Sound != domain.SoundNone {
		s.play(ctx, actions.Sound)
	}
}

// trigger sets the alarm off. Repeated triggers only keep the alarm sounding.
func (s *AlarmSystem) trigger(ctx context.Context, sensor *domain.Sensor) {
	if s.state == domain.StateTriggered {
		if !s.player.IsPlaying() {
			s.play(ctx, domain.SoundAlarmSounding)
		}

		return
	}

	s.setState(ctx, domain.StateTriggered)
	s.metrics.Trigger()

	logger.WarnKV(ctx, "Alarm triggered", "sensor", sensor.ID, "name", sensor.Name, "sensor_state", sensor.State)

	s.play(ctx, domain.SoundAlarmSounding)
}

// cancelArming aborts a pending arming.
func (s *AlarmSystem) cancelArming(ctx context.Context, sensor *domain.Sensor) {
	if s.state != domain.StateArming {
		return
	}

	s.player.Silence(ctx)
	s.setState(ctx, domain.StateDisarmed)

	logger.WarnKV(ctx, "Arming cancelled", "sensor", sensor.ID)
}

// play requests a sound.
func (s *AlarmSystem) play(ctx context.Context, sound domain.Sound) {
	s.metrics.Sound(sound)

	if err := s.player.Play(ctx, sound); err != nil {
		logger.ErrorKV(ctx, "Failed to play sound", "sound", sound, "error", err)
	}
}

// setState changes the alarm state and persists it. A failed write is
// logged; the in-memory state stays authoritative.
func (s *AlarmSystem) setState(ctx context.Context, state domain.State) {
	s.state = state
	s.metrics.SetState(state)

	if err := s.stateRepo.Save(ctx, staterepo.FromState(state)); err != nil {
		logger.ErrorKV(ctx, "Failed to persist alarm state", "state", state, "error", err)
	}
}

// Arm arms a disarmed system. Arming an armed system succeeds without change.
// It fails with ErrCannotArm when the policy does not allow it.
func (s *AlarmSystem) Arm(ctx context.Context, actor *domain.Actor) error {
	if s.state == domain.StateArmed {
		return nil
	}

	if s.state != domain.StateDisarmed || !s.policy.CanArm(s.sortedSensors()) {
		logger.WarnKV(ctx, "Arming rejected", "state", s.state, "actor", actor)

		return fmt.Errorf("%w: alarm is %s", domain.ErrCannotArm, s.state)
	}

	s.setState(ctx, domain.StateArmed)
	s.play(ctx, domain.SoundAlarmArm)
	s.log.LogEvent(ctx, domain.EventAlarmArmed, 0)

	logger.InfoKV(ctx, "Alarm armed", "actor", actor)

	return nil
}

// Disarm returns the system to Disarmed and silences any alarm. It always succeeds.
func (s *AlarmSystem) Disarm(ctx context.Context, actor *domain.Actor) {
	if s.state == domain.StateDisarmed {
		return
	}

	s.player.Silence(ctx)
	s.setState(ctx, domain.StateDisarmed)
	s.play(ctx, domain.SoundAlarmDisarm)
	s.log.LogEvent(ctx, domain.EventAlarmDisarmed, 0)

	logger.InfoKV(ctx, "Alarm disarmed", "actor", actor)
}

// UpdateSensor renames or enables a sensor. The registry file is written
// first; memory changes only when that succeeds.
func (s *AlarmSystem) UpdateSensor(ctx context.Context, update domain.SensorUpdate) (domain.Sensor, error) {
	if !s.policy.CanModifySensors(s.state) {
		return domain.Sensor{}, domain.ErrSensorsLocked
	}

	sensor, ok := s.sensors[update.ID]
	if !ok {
		return domain.Sensor{}, fmt.Errorf("%w: %s", domain.ErrSensorNotFound, update.ID)
	}

	edited := *sensor
	update.Apply(&edited)

	if err := s.registry.Update(ctx, edited); err != nil {
		return domain.Sensor{}, fmt.Errorf("update sensor %s: %w", update.ID, err)
	}

	*sensor = edited

	logger.InfoKV(ctx, "Sensor updated", "sensor", edited.ID, "name", edited.Name, "enabled", edited.Enabled)

	return edited, nil
}

// Sensor returns a copy of one sensor.
func (s *AlarmSystem) Sensor(id domain.SensorID) (domain.Sensor, bool) {
	sensor, ok := s.sensors[id]
	if !ok {
		return domain.Sensor{}, false
	}

	return *sensor, true
}

// Sensors returns copies of all sensors ordered by id.
func (s *AlarmSystem) Sensors() []domain.Sensor {
	sorted := s.sortedSensors()
	result := make([]domain.Sensor, 0, len(sorted))

	for _, sensor := range sorted {
		result = append(result, *sensor)
	}

	return result
}

// State returns the current alarm state.
func (s *AlarmSystem) State() domain.State {
	return s.state
}

// ValidOperations returns what an operator may do now.
func (s *AlarmSystem) ValidOperations() []domain.Operation {
	return s.policy.ValidOperations(s.sortedSensors(), s.state)
}

// Events returns the activity log, oldest first.
func (s *AlarmSystem) Events() []domain.Event {
	return s.log.Events()
}

// Shutdown flushes the activity log and silences the player.
func (s *AlarmSystem) Shutdown(ctx context.Context) {
	s.player.Silence(ctx)

	if err := s.log.Flush(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to flush activity log on shutdown", "error", err)
	}
}

// sortedSensors returns the registry ordered by id.
func (s *AlarmSystem) sortedSensors() []*domain.Sensor {
	sorted := make([]*domain.Sensor, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		sorted = append(sorted, sensor)
	}

	slices.SortFunc(sorted, func(a, b *domain.Sensor) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return sorted
}
