//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/alarm-controller/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// Client wraps a connection to the controller's operator API.
type Client struct {
	// conn is the underlying gRPC connection to the controller.
	conn grpc.ClientConnInterface
	// closer releases conn, nil when the caller owns the connection.
	closer func() error

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the controller.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm controller: %w", err)
	}

	client := NewClient(conn, opts...)
	client.closer = conn.Close

	return client, nil
}

// NewClient wraps an existing connection. Close leaves conn open.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// State retrieves the current alarm state.
func (c *Client) State(ctx context.Context) (domain.State, error) {
	out, err := c.invoke(ctx, api.MethodGetState, new(emptypb.Empty))
	if err != nil {
		return domain.StateDisarmed, fmt.Errorf("get state: %w", err)
	}

	return api.DecodeState(out)
}

// ValidOperations retrieves the operations the controller accepts now.
func (c *Client) ValidOperations(ctx context.Context) ([]domain.Operation, error) {
	out, err := c.invoke(ctx, api.MethodGetValidOperations, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get valid operations: %w", err)
	}

	return api.DecodeOperations(out)
}

// Operate arms or disarms on behalf of actor and returns the resulting state.
func (c *Client) Operate(ctx context.Context, op domain.Operation, actor *domain.Actor) (domain.State, error) {
	out, err := c.invoke(ctx, api.MethodPostOperation, api.EncodeOperationRequest(op, actor))
	if err != nil {
		return domain.StateDisarmed, fmt.Errorf("post operation %s: %w", op, err)
	}

	return api.DecodeState(out)
}

// Sensors lists the sensor registry.
func (c *Client) Sensors(ctx context.Context) ([]domain.Sensor, error) {
	out, err := c.invoke(ctx, api.MethodListSensors, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}

	return api.DecodeSensors(out)
}

// Sensor retrieves one sensor.
func (c *Client) Sensor(ctx context.Context, id domain.SensorID) (domain.Sensor, error) {
	out, err := c.invoke(ctx, api.MethodGetSensor, wrapperspb.String(id.String()))
	if err != nil {
		return domain.Sensor{}, fmt.Errorf("get sensor %s: %w", id, err)
	}

	return api.DecodeSensor(out)
}

// UpdateSensor renames, enables or disables a sensor.
func (c *Client) UpdateSensor(ctx context.Context, update domain.SensorUpdate) (domain.Sensor, error) {
	out, err := c.invoke(ctx, api.MethodUpdateSensor, api.EncodeSensorUpdate(update))
	if err != nil {
		return domain.Sensor{}, fmt.Errorf("update sensor %s: %w", update.ID, err)
	}

	return api.DecodeSensor(out)
}

// Events retrieves the activity log, oldest first.
func (c *Client) Events(ctx context.Context) ([]domain.Event, error) {
	out, err := c.invoke(ctx, api.MethodListEvents, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return api.DecodeEvents(out)
}

// invoke performs one unary call within the call timeout.
func (c *Client) invoke(ctx context.Context, method string, in proto.Message) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, method, in, out); err != nil {
		return nil, err
	}

	return out, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
