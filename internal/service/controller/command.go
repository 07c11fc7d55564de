package controller

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/oshokin/alarm-controller/internal/activitylog"
	api "github.com/oshokin/alarm-controller/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-controller/internal/clock"
	"github.com/oshokin/alarm-controller/internal/config"
	"github.com/oshokin/alarm-controller/internal/logger"
	"github.com/oshokin/alarm-controller/internal/metrics"
	"github.com/oshokin/alarm-controller/internal/policy"
	sensorsrepo "github.com/oshokin/alarm-controller/internal/repository/sensors"
	staterepo "github.com/oshokin/alarm-controller/internal/repository/state"
	"github.com/oshokin/alarm-controller/internal/sound"
	"github.com/oshokin/alarm-controller/internal/transport/radio"
	"github.com/oshokin/alarm-controller/internal/version"
)

// Options controls the alarm-controller process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile overrides the persisted alarm state path from the config.
	StateFile string
	// Source overrides the report transport; nil selects MQTT when a broker
	// is configured and no transport otherwise.
	Source radio.Source
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the controller and blocks until ctx is cancelled or a component fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-controller")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(settings.LogLevel); err != nil {
		logger.WarnKV(ctx, "Invalid log level, using info", "error", err)
	}

	if opts.StateFile != "" {
		settings.StateFile = opts.StateFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	logger.InfoKV(ctx, "Starting alarm controller", version.KV()...)

	output, closeOutput, err := newSoundOutput(settings)
	if err != nil {
		return err
	}
	defer closeOutput()

	c := clock.Real()
	recorder := metrics.New()
	activity := activitylog.New(
		activitylog.NewFileStorage(settings.ActivityLogFile),
		activitylog.WithClock(c),
		activitylog.WithFlushInterval(settings.Alarm.FlushInterval),
	)

	system := NewAlarmSystem(Dependencies{
		Policy: policy.New(policy.Config{
			ArmedTimeout:       settings.Alarm.ArmedTimeout,
			DisarmedTimeout:    settings.Alarm.DisarmedTimeout,
			FaultChimeInterval: settings.Alarm.FaultChimeInterval,
		}, c, activity),
		Log:           activity,
		State:         staterepo.NewFileRepository(settings.StateFile),
		Sensors:       sensorsrepo.NewFileRepository(settings.SensorsFile),
		Player:        sound.NewTimedPlayer(output, c),
		Clock:         c,
		Metrics:       recorder,
		SweepInterval: settings.Alarm.SweepInterval,
	})
	system.Begin(logger.WithName(ctx, "alarm"))

	source := opts.Source
	if source == nil && settings.MQTT.Broker != "" {
		source = radio.NewReceiver(radio.OptionsFromConfig(settings))
	}

	if err = serve(ctx, system, settings, listenAddress, source, recorder); err != nil {
		return err
	}

	logger.Info(ctx, "Alarm controller stopped")

	return nil
}

// serve runs the transport, the loop and the servers of a started system.
// The system is shut down on every return path, once the loop has stopped.
func serve(
	ctx context.Context,
	system *AlarmSystem,
	settings *config.Config,
	listenAddress string,
	source radio.Source,
	recorder *metrics.Recorder,
) error {
	defer system.Shutdown(logger.WithName(context.WithoutCancel(ctx), "alarm"))

	if source != nil {
		handler := func(ctx context.Context, sender net.HardwareAddr, payload []byte) {
			// Failures are logged by OnRadioReceive; the transport never retries.
			_ = system.OnRadioReceive(ctx, sender, payload)
		}

		if err := source.Start(ctx, handler); err != nil {
			return fmt.Errorf("start report transport: %w", err)
		}
		defer source.Close()
	} else {
		logger.Warn(ctx, "No report transport configured, sensors will not be heard")
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	loop := NewLoop(system, settings.Alarm.TickInterval)

	grpcServer := grpc.NewServer()
	api.RegisterAlarmControllerServer(grpcServer, api.NewServer(newService(loop)))

	logger.InfoKV(ctx, "Alarm controller listening",
		"listen_address", listenAddress,
		"state_file", settings.StateFile,
		"sensors_file", settings.SensorsFile,
		"activity_log_file", settings.ActivityLogFile,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(logger.WithName(gctx, "alarm"))
	})

	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		return nil
	})

	if settings.MetricsAddress != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, settings.MetricsAddress, recorder.Handler())
		})
	}

	return g.Wait()
}

// newSoundOutput selects the GPIO siren when enabled, or the log-only output.
func newSoundOutput(settings *config.Config) (sound.Output, func(), error) {
	if !settings.Siren.Enabled {
		return sound.LogOutput{}, func() {}, nil
	}

	siren, err := sound.NewGPIOOutput(settings.Siren.Chip, settings.Siren.Line)
	if err != nil {
		return nil, nil, fmt.Errorf("open siren: %w", err)
	}

	return siren, func() {
		_ = siren.Close()
	}, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
