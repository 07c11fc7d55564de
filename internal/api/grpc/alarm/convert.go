package alarm

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// Field names of the Struct messages.
const (
	fieldState      = "state"
	fieldOperations = "operations"
	fieldOperation  = "operation"
	fieldHostname   = "hostname"
	fieldUsername   = "username"
	fieldSensors    = "sensors"
	fieldID         = "id"
	fieldName       = "name"
	fieldEnabled    = "enabled"
	fieldLastUpdate = "last_update"
	fieldEvents     = "events"
	fieldTime       = "time"
	fieldType       = "type"
	fieldSensorID   = "sensor_id"
)

var (
	// errInvalidRequest is returned for structurally malformed messages.
	errInvalidRequest = errors.New("invalid message")
	// errMissingField is returned when a required field is absent.
	errMissingField = errors.New("missing field")
)

// EncodeState builds the GetState and PostOperation response.
func EncodeState(state domain.State) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldState: structpb.NewStringValue(state.String()),
	}}
}

// DecodeState parses an EncodeState message.
func DecodeState(msg *structpb.Struct) (domain.State, error) {
	s, err := stringField(msg, fieldState, true)
	if err != nil {
		return domain.StateDisarmed, err
	}

	return domain.ParseState(s)
}

// EncodeOperations builds the GetValidOperations response.
func EncodeOperations(ops []domain.Operation) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(ops))
	for _, op := range ops {
		values = append(values, structpb.NewStringValue(op.String()))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldOperations: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

// DecodeOperations parses an EncodeOperations message.
func DecodeOperations(msg *structpb.Struct) ([]domain.Operation, error) {
	values, err := listField(msg, fieldOperations)
	if err != nil {
		return nil, err
	}

	ops := make([]domain.Operation, 0, len(values))

	for _, v := range values {
		op, err := domain.ParseOperation(v.GetStringValue())
		if err != nil {
			return nil, err
		}

		ops = append(ops, op)
	}

	return ops, nil
}

// EncodeOperationRequest builds the PostOperation request.
func EncodeOperationRequest(op domain.Operation, actor *domain.Actor) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldOperation: structpb.NewStringValue(op.String()),
	}

	if actor != nil {
		fields[fieldHostname] = structpb.NewStringValue(actor.Hostname)
		fields[fieldUsername] = structpb.NewStringValue(actor.Username)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeOperationRequest parses a PostOperation request. The actor is nil when
// neither hostname nor username is given.
func DecodeOperationRequest(msg *structpb.Struct) (domain.Operation, *domain.Actor, error) {
	name, err := stringField(msg, fieldOperation, true)
	if err != nil {
		return 0, nil, err
	}

	op, err := domain.ParseOperation(name)
	if err != nil {
		return 0, nil, err
	}

	hostname, err := stringField(msg, fieldHostname, false)
	if err != nil {
		return 0, nil, err
	}

	username, err := stringField(msg, fieldUsername, false)
	if err != nil {
		return 0, nil, err
	}

	if hostname == "" && username == "" {
		return op, nil, nil
	}

	return op, &domain.Actor{Hostname: hostname, Username: username}, nil
}

// EncodeSensor builds the GetSensor and UpdateSensor response.
func EncodeSensor(sensor domain.Sensor) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldID:      structpb.NewStringValue(sensor.ID.String()),
		fieldName:    structpb.NewStringValue(sensor.Name),
		fieldEnabled: structpb.NewBoolValue(sensor.Enabled),
		fieldState:   structpb.NewStringValue(sensor.State.String()),
	}

	if sensor.Reported() {
		fields[fieldLastUpdate] = structpb.NewStringValue(sensor.LastUpdate.UTC().Format(time.RFC3339))
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeSensor parses an EncodeSensor message.
func DecodeSensor(msg *structpb.Struct) (domain.Sensor, error) {
	var sensor domain.Sensor

	rawID, err := stringField(msg, fieldID, true)
	if err != nil {
		return sensor, err
	}

	if sensor.ID, err = domain.ParseSensorID(rawID); err != nil {
		return sensor, err
	}

	if sensor.Name, err = stringField(msg, fieldName, false); err != nil {
		return sensor, err
	}

	if sensor.Enabled, err = boolField(msg, fieldEnabled); err != nil {
		return sensor, err
	}

	rawState, err := stringField(msg, fieldState, true)
	if err != nil {
		return sensor, err
	}

	if sensor.State, err = domain.ParseSensorState(rawState); err != nil {
		return sensor, err
	}

	if sensor.LastUpdate, err = timeField(msg, fieldLastUpdate); err != nil {
		return sensor, err
	}

	return sensor, nil
}

// EncodeSensors builds the ListSensors response.
func EncodeSensors(sensors []domain.Sensor) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(sensors))
	for _, sensor := range sensors {
		values = append(values, structpb.NewStructValue(EncodeSensor(sensor)))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldSensors: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

// DecodeSensors parses an EncodeSensors message.
func DecodeSensors(msg *structpb.Struct) ([]domain.Sensor, error) {
	values, err := listField(msg, fieldSensors)
	if err != nil {
		return nil, err
	}

	sensors := make([]domain.Sensor, 0, len(values))

	for _, v := range values {
		sensor, err := DecodeSensor(v.GetStructValue())
		if err != nil {
			return nil, err
		}

		sensors = append(sensors, sensor)
	}

	return sensors, nil
}

// EncodeSensorUpdate builds the UpdateSensor request. Unset fields are omitted.
func EncodeSensorUpdate(update domain.SensorUpdate) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldID: structpb.NewStringValue(update.ID.String()),
	}

	if update.Name != nil {
		fields[fieldName] = structpb.NewStringValue(*update.Name)
	}

	if update.Enabled != nil {
		fields[fieldEnabled] = structpb.NewBoolValue(*update.Enabled)
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeSensorUpdate parses an UpdateSensor request. Fields other than id,
// name and enabled are rejected.
func DecodeSensorUpdate(msg *structpb.Struct) (domain.SensorUpdate, error) {
	var update domain.SensorUpdate

	for key := range msg.GetFields() {
		switch key {
		case fieldID, fieldName, fieldEnabled:
		default:
			return update, fmt.Errorf("%w: unsupported field %q", errInvalidRequest, key)
		}
	}

	rawID, err := stringField(msg, fieldID, true)
	if err != nil {
		return update, err
	}

	if update.ID, err = domain.ParseSensorID(rawID); err != nil {
		return update, err
	}

	if v, ok := msg.GetFields()[fieldName]; ok {
		name, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return update, fmt.Errorf("%w: %q must be a string", errInvalidRequest, fieldName)
		}

		update.Name = &name.StringValue
	}

	if v, ok := msg.GetFields()[fieldEnabled]; ok {
		enabled, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return update, fmt.Errorf("%w: %q must be a boolean", errInvalidRequest, fieldEnabled)
		}

		update.Enabled = &enabled.BoolValue
	}

	return update, nil
}

// EncodeEvents builds the ListEvents response. Ids travel as decimal strings
// because Struct numbers are doubles.
func EncodeEvents(events []domain.Event) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(events))

	for _, event := range events {
		values = append(values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			fieldID:       structpb.NewStringValue(strconv.FormatUint(event.ID, 10)),
			fieldTime:     structpb.NewStringValue(event.Time.UTC().Format(time.RFC3339Nano)),
			fieldType:     structpb.NewStringValue(event.Type.String()),
			fieldSensorID: structpb.NewStringValue(event.SensorID.String()),
		}}))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldEvents: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

// DecodeEvents parses an EncodeEvents message.
func DecodeEvents(msg *structpb.Struct) ([]domain.Event, error) {
	values, err := listField(msg, fieldEvents)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(values))

	for _, v := range values {
		event, err := decodeEvent(v.GetStructValue())
		if err != nil {
			return nil, err
		}

		events = append(events, event)
	}

	return events, nil
}

// decodeEvent parses one entry of EncodeEvents.
func decodeEvent(msg *structpb.Struct) (domain.Event, error) {
	var event domain.Event

	rawID, err := stringField(msg, fieldID, true)
	if err != nil {
		return event, err
	}

	if event.ID, err = strconv.ParseUint(rawID, 10, 64); err != nil {
		return event, fmt.Errorf("%w: event id %q", errInvalidRequest, rawID)
	}

	if event.Time, err = timeField(msg, fieldTime); err != nil {
		return event, err
	}

	rawType, err := stringField(msg, fieldType, true)
	if err != nil {
		return event, err
	}

	if event.Type, err = domain.ParseEventType(rawType); err != nil {
		return event, err
	}

	rawSensor, err := stringField(msg, fieldSensorID, true)
	if err != nil {
		return event, err
	}

	if event.SensorID, err = domain.ParseSensorID(rawSensor); err != nil {
		return event, err
	}

	return event, nil
}

// stringField reads a string field; absent optional fields read as "".
func stringField(msg *structpb.Struct, key string, required bool) (string, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: %q", errMissingField, key)
		}

		return "", nil
	}

	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", errInvalidRequest, key)
	}

	return s.StringValue, nil
}

// boolField reads an optional boolean field.
func boolField(msg *structpb.Struct, key string) (bool, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return false, nil
	}

	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %q must be a boolean", errInvalidRequest, key)
	}

	return b.BoolValue, nil
}

// timeField reads an optional RFC 3339 timestamp.
func timeField(msg *structpb.Struct, key string) (time.Time, error) {
	raw, err := stringField(msg, key, false)
	if err != nil || raw == "" {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", errInvalidRequest, key, err)
	}

	return t, nil
}

// listField reads a list field; an absent list reads as empty.
func listField(msg *structpb.Struct, key string) ([]*structpb.Value, error) {
	v, ok := msg.GetFields()[key]
	if !ok {
		return nil, nil
	}

	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a list", errInvalidRequest, key)
	}

	return list.ListValue.GetValues(), nil
}
