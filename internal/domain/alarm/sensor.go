package alarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SensorID identifies a contact sensor. It is derived from the sensor's
// 48-bit hardware address; registry files may carry up to 64 bits.
type SensorID uint64

// maxSensorIDDigits is the longest accepted hex representation.
const maxSensorIDDigits = 16

// ParseSensorID parses 1 to 16 hex digits in either case.
func ParseSensorID(s string) (SensorID, error) {
	if s == "" || len(s) > maxSensorIDDigits {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSensorID, s)
	}

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSensorID, s)
	}

	return SensorID(v), nil
}

// String returns the lowercase hex representation used in the registry.
func (id SensorID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// SensorState is the last reported condition of a contact sensor.
type SensorState uint8

const (
	// SensorUnknown is the state before the first report.
	SensorUnknown SensorState = iota
	// SensorOpen means the contact is open.
	SensorOpen
	// SensorClosed means the contact is closed.
	SensorClosed
	// SensorFault means the sensor reported a hardware fault.
	SensorFault
)

// String returns the display name of the sensor state.
func (s SensorState) String() string {
	switch s {
	case SensorUnknown:
		return "Unknown"
	case SensorOpen:
		return "Open"
	case SensorClosed:
		return "Closed"
	case SensorFault:
		return "Fault"
	default:
		return fmt.Sprintf("SensorState(%d)", uint8(s))
	}
}

// Sensor is one contact sensor known to the controller.
type Sensor struct {
	// ID is the unique sensor identity.
	ID SensorID
	// Enabled marks sensors taken into account by the policy and arming.
	Enabled bool
	// Name is the user-assigned label.
	Name string
	// State is the last reported state.
	State SensorState
	// LastUpdate is when the last report arrived; zero means never.
	LastUpdate time.Time
	// FaultLastHandled is when the last fault chime was requested.
	FaultLastHandled time.Time
}

// Reported tells whether the sensor has ever sent a report.
func (s *Sensor) Reported() bool {
	return !s.LastUpdate.IsZero()
}

// SensorUpdate is a user edit of a registry entry. Nil fields are left untouched.
type SensorUpdate struct {
	// ID selects the sensor.
	ID SensorID
	// Name replaces the label when set.
	Name *string
	// Enabled replaces the enabled flag when set.
	Enabled *bool
}

// Apply copies the set fields onto the sensor.
func (u *SensorUpdate) Apply(s *Sensor) {
	if u.Name != nil {
		s.Name = *u.Name
	}

	if u.Enabled != nil {
		s.Enabled = *u.Enabled
	}
}

// ParseSensorState is the inverse of SensorState.String.
func ParseSensorState(s string) (SensorState, error) {
	for state := SensorUnknown; state <= SensorFault; state++ {
		if strings.EqualFold(s, state.String()) {
			return state, nil
		}
	}

	return SensorUnknown, fmt.Errorf("unknown sensor state %q", s)
}
