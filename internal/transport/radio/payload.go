package radio

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// PayloadSize is the length of a contact sensor report.
const PayloadSize = 12

// macLength is the length of a sensor hardware address.
const macLength = 6

// ReportState is the contact state as encoded by the sensor firmware.
type ReportState uint32

const (
	// ReportOpen is sent when the contact is open.
	ReportOpen ReportState = iota
	// ReportClosed is sent when the contact is closed.
	ReportClosed
	// ReportFault is sent when the sensor detects a fault.
	ReportFault
	// ReportUnknown is sent before the sensor has read its contact.
	ReportUnknown
)

// SensorState maps the wire state to the domain state.
func (s ReportState) SensorState() domain.SensorState {
	switch s {
	case ReportOpen:
		return domain.SensorOpen
	case ReportClosed:
		return domain.SensorClosed
	case ReportFault:
		return domain.SensorFault
	default:
		return domain.SensorUnknown
	}
}

// ReportStateFrom maps a domain state to its wire value.
func ReportStateFrom(s domain.SensorState) ReportState {
	switch s {
	case domain.SensorOpen:
		return ReportOpen
	case domain.SensorClosed:
		return ReportClosed
	case domain.SensorFault:
		return ReportFault
	default:
		return ReportUnknown
	}
}

var (
	// ErrInvalidPayload is returned for reports that cannot be decoded.
	ErrInvalidPayload = errors.New("invalid sensor payload")
	// errInvalidMAC is returned for hardware addresses that are not 6 bytes long.
	errInvalidMAC = errors.New("sensor address must be 6 bytes")
)

// Payload is one contact sensor report.
//
// Wire layout, little-endian: wakeup reason (1 byte), 3 bytes of padding,
// state (4 bytes), supply voltage as float32 (4 bytes).
type Payload struct {
	// WakeupReason is the firmware's reason for waking up, informational only.
	WakeupReason uint8
	// State is the contact state.
	State ReportState
	// Vcc is the battery voltage.
	Vcc float32
}

// DecodePayload parses a report. Bytes past PayloadSize are ignored so newer
// firmware may append fields.
func DecodePayload(b []byte) (Payload, error) {
	if len(b) < PayloadSize {
		return Payload{}, fmt.Errorf("%w: got %d bytes, want at least %d", ErrInvalidPayload, len(b), PayloadSize)
	}

	p := Payload{
		WakeupReason: b[0],
		State:        ReportState(binary.LittleEndian.Uint32(b[4:8])),
		Vcc:          math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}

	if p.State > ReportUnknown {
		return Payload{}, fmt.Errorf("%w: state %d", ErrInvalidPayload, p.State)
	}

	return p, nil
}

// EncodePayload serialises a report.
func EncodePayload(p Payload) []byte {
	b := make([]byte, PayloadSize)
	b[0] = p.WakeupReason
	binary.LittleEndian.PutUint32(b[4:8], uint32(p.State))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(p.Vcc))

	return b
}

// SensorIDFromMAC derives the sensor id from its hardware address,
// reading the six bytes as a big-endian number.
func SensorIDFromMAC(mac net.HardwareAddr) (domain.SensorID, error) {
	if len(mac) != macLength {
		return 0, fmt.Errorf("%w: %q", errInvalidMAC, mac.String())
	}

	var id uint64
	for _, b := range mac {
		id = id<<8 | uint64(b)
	}

	return domain.SensorID(id), nil
}

// MACFromSensorID is the inverse of SensorIDFromMAC.
func MACFromSensorID(id domain.SensorID) net.HardwareAddr {
	mac := make(net.HardwareAddr, macLength)
	for i := macLength - 1; i >= 0; i-- {
		mac[i] = byte(id)
		id >>= 8
	}

	return mac
}

// ParseMAC accepts 30:ae:a4:04:3e:08 style addresses as well as 12 bare hex digits.
func ParseMAC(s string) (net.HardwareAddr, error) {
	if len(s) == 2*macLength {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("parse sensor address %q: %w", s, err)
		}

		return net.HardwareAddr(raw), nil
	}

	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, fmt.Errorf("parse sensor address %q: %w", s, err)
	}

	if len(mac) != macLength {
		return nil, fmt.Errorf("%w: %q", errInvalidMAC, s)
	}

	return mac, nil
}
