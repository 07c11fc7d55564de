package alarm

import (
	"fmt"
	"time"
)

// EventType classifies activity log entries.
type EventType uint8

const (
	// EventNone marks an unused activity log slot.
	EventNone EventType = iota
	// EventSystemStart is logged once per boot.
	EventSystemStart
	// EventNewSensor is logged when an unknown sensor reports for the first time.
	EventNewSensor
	// EventSensorOpened is logged on a Closed -> Open chime.
	EventSensorOpened
	// EventSensorClosed is logged on an Open -> Closed chime.
	EventSensorClosed
	// EventSensorFault is logged on every fault report while disarmed.
	EventSensorFault
	// EventAlarmArmed is logged when the alarm becomes armed.
	EventAlarmArmed
	// EventAlarmDisarmed is logged when the alarm becomes disarmed.
	EventAlarmDisarmed
	// EventAlarmTriggered is logged when the alarm goes off.
	EventAlarmTriggered
	// EventAlarmArmingFailed is logged when arming is cancelled by a stale sensor.
	EventAlarmArmingFailed

	// eventTypeCount bounds the valid range.
	eventTypeCount
)

// Valid tells whether t is a known, non-sentinel event type.
func (t EventType) Valid() bool {
	return t > EventNone && t < eventTypeCount
}

// IsCritical tells whether logging t must reach durable storage before returning.
func (t EventType) IsCritical() bool {
	switch t {
	case EventSystemStart,
		EventAlarmArmed,
		EventAlarmDisarmed,
		EventAlarmTriggered,
		EventAlarmArmingFailed:
		return true
	default:
		return false
	}
}

// String returns the display name of the event type.
func (t EventType) String() string {
	switch t {
	case EventNone:
		return "Nothing"
	case EventSystemStart:
		return "SystemStart"
	case EventNewSensor:
		return "NewSensor"
	case EventSensorOpened:
		return "SensorOpened"
	case EventSensorClosed:
		return "SensorClosed"
	case EventSensorFault:
		return "SensorFault"
	case EventAlarmArmed:
		return "AlarmArmed"
	case EventAlarmDisarmed:
		return "AlarmDisarmed"
	case EventAlarmTriggered:
		return "AlarmTriggered"
	case EventAlarmArmingFailed:
		return "AlarmArmingFailed"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// Event is one activity log entry.
type Event struct {
	// ID increases strictly with every logged event, across reboots.
	ID uint64
	// Time is the wall-clock time of the event, for display only.
	Time time.Time
	// Type classifies the event.
	Type EventType
	// SensorID is the sensor concerned, zero for system-level events.
	SensorID SensorID
}

// ParseEventType is the inverse of EventType.String for valid types.
func ParseEventType(s string) (EventType, error) {
	for t := EventSystemStart; t < eventTypeCount; t++ {
		if t.String() == s {
			return t, nil
		}
	}

	return EventNone, fmt.Errorf("unknown event type %q", s)
}
