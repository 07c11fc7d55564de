package controller

import (
	"context"
	"fmt"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
)

// service adapts the loop to the operator API. Each call is one loop request.
type service struct {
	// loop runs the requests.
	loop *Loop
}

// newService creates the API facade over loop.
func newService(loop *Loop) *service {
	return &service{loop: loop}
}

// State returns the current alarm state.
func (s *service) State(ctx context.Context) (domain.State, error) {
	var state domain.State

	err := s.loop.Do(ctx, func(system *AlarmSystem) {
		state = system.State()
	})

	return state, err
}

// ValidOperations returns the operations allowed now.
func (s *service) ValidOperations(ctx context.Context) ([]domain.Operation, error) {
	var ops []domain.Operation

	err := s.loop.Do(ctx, func(system *AlarmSystem) {
		ops = system.ValidOperations()
	})

	return ops, err
}

// Operate arms or disarms on behalf of actor and returns the resulting state.
func (s *service) Operate(ctx context.Context, op domain.Operation, actor *domain.Actor) (domain.State, error) {
	var (
		state  domain.State
		result error
	)

	err := s.loop.Do(ctx, func(system *AlarmSystem) {
		switch op {
		case domain.OperationArm:
			result = system.Arm(ctx, actor)
		case domain.OperationDisarm:
			system.Disarm(ctx, actor)
		default:
			result = fmt.Errorf("%w: %s", domain.ErrInvalidOperation, op)
		}

		state = system.State()
	})
	if err != nil {
		return state, err
	}

	if result != nil {
		logger.WarnKV(ctx, "Operation failed", "operation", op, "actor", actor, "error", result)
	}

	return state, result
}

// Sensors lists the registry.
func (s *service) Sensors(ctx context.Context) ([]domain.Sensor, error) {
	var sensors []domain.Sensor

	err := s.loop.Do(ctx, func(system *AlarmSystem) {
		sensors = system.Sensors()
	})

	return sensors, err
}

// Sensor returns one sensor or ErrSensorNotFound.
func (s *service) Sensor(ctx context.Context, id domain.SensorID) (domain.Sensor, error) {
	var (
		sensor domain.Sensor
		found  bool
	)

	err := s.loop.Do(ctx, func(system *AlarmSystem) {
		sensor, found = system.Sensor(id)
	})
	if err != nil {
		return domain.Sensor{}, err
	}

	if !found {
		return domain.Sensor{}, fmt.Errorf("%w: %s", domain.ErrSensorNotFound, id)
	}

	return sensor, nil
}

// UpdateSensor edits a sensor's name or enabled flag.
func (s *service) UpdateSensor(ctx context.Context, update domain.SensorUpdate) (domain.Sensor, error) {
	var (
		sensor domain.Sensor
		result error
	)

	err := s.loop.Do(ctx, func(system *AlarmSystem) {
		sensor, result = system.UpdateSensor(ctx, update)
	})
	if err != nil {
		return domain.Sensor{}, err
	}

	return sensor, result
}

// Events returns the activity log, oldest first.
func (s *service) Events(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event

	err := s.loop.Do(ctx, func(system *AlarmSystem) {
		events = system.Events()
	})

	return events, err
}
