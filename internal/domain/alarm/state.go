package alarm

import (
	"fmt"
	"strings"
)

// Actor identifies who asked the controller to change the alarm state.
type Actor struct {
	// Hostname is the machine name the request came from.
	Hostname string
	// Username is the system user who sent the request.
	Username string
}

// String renders the actor as user@host for logs.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// State is the authoritative alarm state owned by the controller.
type State uint8

const (
	// StateDisarmed means sensor transitions only produce chimes.
	StateDisarmed State = iota
	// StateArming is reserved for a delayed-arming feature and is never entered yet.
	StateArming
	// StateArmed means an open or faulted enabled sensor triggers the alarm.
	StateArmed
	// StateTriggered means the alarm is sounding until disarmed.
	StateTriggered
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateDisarmed:
		return "Disarmed"
	case StateArming:
		return "Arming"
	case StateArmed:
		return "Armed"
	case StateTriggered:
		return "Triggered"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ParseState converts a display name back into a State.
func ParseState(s string) (State, error) {
	for _, state := range []State{StateDisarmed, StateArming, StateArmed, StateTriggered} {
		if strings.EqualFold(s, state.String()) {
			return state, nil
		}
	}

	return StateDisarmed, fmt.Errorf("unknown alarm state %q", s)
}

// Operation is a user-requested alarm transition.
type Operation uint8

const (
	// OperationArm requests Disarmed -> Armed.
	OperationArm Operation = iota + 1
	// OperationDisarm requests any state -> Disarmed.
	OperationDisarm
)

// String returns the display name of the operation.
func (o Operation) String() string {
	switch o {
	case OperationArm:
		return "Arm"
	case OperationDisarm:
		return "Disarm"
	default:
		return fmt.Sprintf("Operation(%d)", uint8(o))
	}
}

// ParseOperation converts an operation name, case-insensitively.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arm":
		return OperationArm, nil
	case "disarm":
		return OperationDisarm, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperation, s)
	}
}
