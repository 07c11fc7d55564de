package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
	"github.com/oshokin/alarm-controller/internal/service/common"
)

// Options configures how alarmctl reaches the controller.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Out receives human-readable output, stdout when nil.
	Out io.Writer
}

// defaultPushInterval defines retry delay when pushing an operation to the controller.
const defaultPushInterval = 1 * time.Second

// timeLayout formats timestamps in listings.
const timeLayout = time.RFC3339

// Operate requests op and retries until the controller confirms the target state.
// A refusal by the controller (for example arming with an open door) is final.
func Operate(ctx context.Context, opts *Options, op domain.Operation) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarmctl-"+op.String())

	want, err := targetState(op)
	if err != nil {
		return err
	}

	// Identify current user and hostname for the activity log.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, serverAddress, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Pushing operation", "server_address", serverAddress, "operation", op.String())

	// attempt tries once, returns (completed, error).
	attempt := func() (bool, error) {
		state, err := client.Operate(ctx, op, actor)
		if err != nil {
			if !retryable(err) {
				return false, fmt.Errorf("%s: %w", op, err)
			}

			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "Operation failed", "operation", op.String(), "error", err)

			return false, nil
		}

		if state != want {
			logger.WarnKV(ctx, "Controller reported unexpected state", "state", state.String(), "want", want.String())
			return false, nil
		}

		fmt.Fprintf(output(opts), "Alarm is %s\n", state)

		return true, nil
	}

	// Attempt immediately before starting retry loop.
	if done, err := attempt(); err != nil || done {
		return err
	}

	ticker := time.NewTicker(defaultPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := attempt()
			if err != nil || done {
				return err
			}
		}
	}
}

// ShowState prints the alarm state and the operations it accepts.
func ShowState(ctx context.Context, opts *Options) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	state, err := client.State(ctx)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}

	ops, err := client.ValidOperations(ctx)
	if err != nil {
		return fmt.Errorf("get valid operations: %w", err)
	}

	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.String())
	}

	fmt.Fprintf(output(opts), "State: %s\nOperations: %v\n", state, names)

	return nil
}

// ListSensors prints every known sensor.
func ListSensors(ctx context.Context, opts *Options) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	sensors, err := client.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("list sensors: %w", err)
	}

	return WriteSensors(output(opts), sensors)
}

// ShowSensor prints one sensor.
func ShowSensor(ctx context.Context, opts *Options, id domain.SensorID) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	sensor, err := client.Sensor(ctx, id)
	if err != nil {
		return fmt.Errorf("get sensor %s: %w", id, err)
	}

	return WriteSensors(output(opts), []domain.Sensor{sensor})
}

// UpdateSensor renames, enables or disables a sensor and prints the result.
func UpdateSensor(ctx context.Context, opts *Options, update domain.SensorUpdate) error {
	ctx = logger.WithName(ctx, "alarmctl-update-sensor")

	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	sensor, err := client.UpdateSensor(ctx, update)
	if err != nil {
		return fmt.Errorf("update sensor %s: %w", update.ID, err)
	}

	logger.InfoKV(ctx, "Sensor updated", "sensor", sensor.ID.String(), "name", sensor.Name, "enabled", sensor.Enabled)

	return WriteSensors(output(opts), []domain.Sensor{sensor})
}

// ListEvents prints the activity log, oldest first.
func ListEvents(ctx context.Context, opts *Options) error {
	client, _, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	events, err := client.Events(ctx)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	return WriteEvents(output(opts), events)
}

// WriteSensors renders sensors as an aligned table.
func WriteSensors(w io.Writer, sensors []domain.Sensor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tNAME\tENABLED\tSTATE\tLAST UPDATE")

	for _, s := range sensors {
		lastUpdate := "never"
		if !s.LastUpdate.IsZero() {
			lastUpdate = s.LastUpdate.Format(timeLayout)
		}

		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", s.ID, s.Name, s.Enabled, s.State, lastUpdate)
	}

	return tw.Flush()
}

// WriteEvents renders events as an aligned table.
func WriteEvents(w io.Writer, events []domain.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tTIME\tEVENT\tSENSOR")

	for _, e := range events {
		sensor := "-"
		if e.SensorID != 0 {
			sensor = e.SensorID.String()
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Time.Format(timeLayout), e.Type, sensor)
	}

	return tw.Flush()
}

// connect loads settings and dials the controller.
func connect(ctx context.Context, opts *Options) (*common.Client, string, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, "", err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, "", err
	}

	return client, serverAddress, nil
}

// targetState is the state the controller reports once op succeeded.
func targetState(op domain.Operation) (domain.State, error) {
	switch op {
	case domain.OperationArm:
		return domain.StateArmed, nil
	case domain.OperationDisarm:
		return domain.StateDisarmed, nil
	default:
		return domain.StateDisarmed, fmt.Errorf("%w: %s", domain.ErrInvalidOperation, op)
	}
}

// retryable reports whether a failed call may succeed when repeated.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch status.Code(err) {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound, codes.PermissionDenied:
		return false
	default:
		return true
	}
}

func output(opts *Options) io.Writer {
	if opts.Out == nil {
		return os.Stdout
	}

	return opts.Out
}
