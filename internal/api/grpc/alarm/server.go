package alarm

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	State(ctx context.Context) (domain.State, error)
	ValidOperations(ctx context.Context) ([]domain.Operation, error)
	Operate(ctx context.Context, op domain.Operation, actor *domain.Actor) (domain.State, error)
	Sensors(ctx context.Context) ([]domain.Sensor, error)
	Sensor(ctx context.Context, id domain.SensorID) (domain.Sensor, error)
	UpdateSensor(ctx context.Context, update domain.SensorUpdate) (domain.Sensor, error)
	Events(ctx context.Context) ([]domain.Event, error)
}

// Server implements the AlarmController gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetState returns the current alarm state.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	state, err := s.service.State(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeState(state), nil
}

// ListSensors returns every known sensor.
func (s *Server) ListSensors(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	sensors, err := s.service.Sensors(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeSensors(sensors), nil
}

// GetSensor returns one sensor by its hex id.
func (s *Server) GetSensor(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := domain.ParseSensorID(req.GetValue())
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	sensor, err := s.service.Sensor(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeSensor(sensor), nil
}

// GetValidOperations returns what an operator may do now.
func (s *Server) GetValidOperations(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ops, err := s.service.ValidOperations(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeOperations(ops), nil
}

// PostOperation arms or disarms and returns the resulting state.
func (s *Server) PostOperation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	op, actor, err := DecodeOperationRequest(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	state, err := s.service.Operate(ctx, op, actor)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeState(state), nil
}

// UpdateSensor renames, enables or disables a sensor.
func (s *Server) UpdateSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	update, err := DecodeSensorUpdate(req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	sensor, err := s.service.UpdateSensor(ctx, update)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeSensor(sensor), nil
}

// ListEvents returns the activity log, oldest first.
func (s *Server) ListEvents(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	events, err := s.service.Events(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return EncodeEvents(events), nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidSensorID),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, errInvalidRequest),
		errors.Is(err, errMissingField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrCannotArm),
		errors.Is(err, domain.ErrSensorsLocked):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrSensorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)

		return status.Error(codes.Internal, "internal error")
	}
}
