package alarm

import "errors"

var (
	// ErrCannotArm is returned when some enabled sensor is not closed or none is enabled.
	ErrCannotArm = errors.New("alarm cannot be armed now")
	// ErrSensorNotFound is returned for an unknown sensor identifier.
	ErrSensorNotFound = errors.New("sensor not found")
	// ErrSensorsLocked is returned for registry edits while the alarm is not disarmed.
	ErrSensorsLocked = errors.New("sensors cannot be modified unless disarmed")
	// ErrInvalidSensorID is returned for malformed sensor identifiers.
	ErrInvalidSensorID = errors.New("invalid sensor id")
	// ErrInvalidOperation is returned for unknown operation names.
	ErrInvalidOperation = errors.New("invalid operation")
)
