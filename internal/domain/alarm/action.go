package alarm

import "fmt"

// Sound selects a playback on the sounder.
type Sound uint8

const (
	// SoundNone requests nothing.
	SoundNone Sound = iota
	// SoundSensorChimeOpened is played when a sensor opens while disarmed.
	SoundSensorChimeOpened
	// SoundSensorChimeClosed is played when a sensor closes while disarmed.
	SoundSensorChimeClosed
	// SoundSensorFault is the rate-limited fault chime.
	SoundSensorFault
	// SoundAlarmArm confirms arming.
	SoundAlarmArm
	// SoundAlarmDisarm confirms disarming.
	SoundAlarmDisarm
	// SoundAlarmArming is the countdown of delayed arming.
	SoundAlarmArming
	// SoundAlarmTriggered announces the alarm going off.
	SoundAlarmTriggered
	// SoundAlarmSounding is the siren, repeated while triggered.
	SoundAlarmSounding
)

// String returns the display name of the sound.
func (s Sound) String() string {
	switch s {
	case SoundNone:
		return "None"
	case SoundSensorChimeOpened:
		return "SensorChimeOpened"
	case SoundSensorChimeClosed:
		return "SensorChimeClosed"
	case SoundSensorFault:
		return "SensorFault"
	case SoundAlarmArm:
		return "AlarmArm"
	case SoundAlarmDisarm:
		return "AlarmDisarm"
	case SoundAlarmArming:
		return "AlarmArming"
	case SoundAlarmTriggered:
		return "AlarmTriggered"
	case SoundAlarmSounding:
		return "AlarmSounding"
	default:
		return fmt.Sprintf("Sound(%d)", uint8(s))
	}
}

// Actions are the side effects the policy asks the controller to apply.
type Actions struct {
	// TriggerAlarm moves an armed system to Triggered.
	TriggerAlarm bool
	// Sound is the playback to request, SoundNone for none.
	Sound Sound
	// CancelArming aborts an in-progress arming.
	CancelArming bool
}

// PlaySound records a playback request. The last request wins.
func (a *Actions) PlaySound(sound Sound) {
	a.Sound = sound
}

// Empty tells whether no side effect was requested.
func (a Actions) Empty() bool {
	return !a.TriggerAlarm && !a.CancelArming && a.Sound == SoundNone
}
