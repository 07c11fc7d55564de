package checker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
	"github.com/oshokin/alarm-controller/internal/service/common"
)

// Options controls the watcher polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between alarm state checks.
	PollInterval time.Duration
	// ExitOnTrigger stops watching once the alarm is triggered.
	ExitOnTrigger bool
	// OnTrigger is a command and its arguments started when the alarm triggers.
	OnTrigger []string
}

// DefaultPollInterval defines the default polling interval for alarm state checks.
const DefaultPollInterval = 5 * time.Second

// errTriggered stops the polling loop when ExitOnTrigger is set.
var errTriggered = errors.New("alarm triggered")

// StateReader is the part of the controller client the watcher needs.
type StateReader interface {
	State(ctx context.Context) (domain.State, error)
}

// Run polls the alarm state and reacts to it becoming Triggered.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarmctl-watch")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	// Determine server address: command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching alarm state", "server_address", serverAddress, "interval", opts.PollInterval.String())

	return NewWatcher(client, opts).Watch(ctx)
}

// Watcher remembers the last observed state to report transitions only.
type Watcher struct {
	reader StateReader
	opts   *Options
	last   domain.State
	seen   bool
}

// NewWatcher creates a watcher over reader.
func NewWatcher(reader StateReader, opts *Options) *Watcher {
	return &Watcher{reader: reader, opts: opts}
}

// Watch polls until ctx ends or, with ExitOnTrigger, the alarm triggers.
func (w *Watcher) Watch(ctx context.Context) error {
	interval := w.opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.Check(ctx); err != nil {
			if errors.Is(err, errTriggered) {
				logger.Info(ctx, "Alarm triggered, exiting")
				return nil
			}

			logger.ErrorKV(ctx, "Check state failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
		}
	}
}

// Check reads the state once and handles a transition.
// Returns errTriggered when the watcher should stop.
func (w *Watcher) Check(ctx context.Context) error {
	state, err := w.reader.State(ctx)
	if err != nil {
		return err
	}

	if w.seen && state == w.last {
		return nil
	}

	previous := w.last
	first := !w.seen
	w.last, w.seen = state, true

	if first {
		logger.InfoKV(ctx, "Alarm state", "state", state.String())
	} else {
		logger.InfoKV(ctx, "Alarm state changed", "from", previous.String(), "to", state.String())
	}

	if state != domain.StateTriggered {
		return nil
	}

	if len(w.opts.OnTrigger) > 0 {
		if err = runHook(ctx, w.opts.OnTrigger); err != nil {
			logger.ErrorKV(ctx, "Trigger hook failed", "command", w.opts.OnTrigger[0], "error", err)
		}
	}

	if w.opts.ExitOnTrigger {
		return errTriggered
	}

	return nil
}

// runHook starts the command without waiting for it; the OS takes over the rest.
func runHook(ctx context.Context, command []string) error {
	//nolint:gosec // The command comes from the operator's own command line.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), command[0], command[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", command[0], err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
