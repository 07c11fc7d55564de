package reporter

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/oshokin/alarm-controller/internal/config"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
	"github.com/oshokin/alarm-controller/internal/transport/radio"
)

// Options describes one simulated sensor report.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Broker overrides the broker URL from config when specified.
	Broker string
	// MAC is the sensor hardware address, 12 hex digits or colon separated.
	MAC string
	// State is the contact state name: Open, Closed, Fault or Unknown.
	State string
	// Vcc is the reported battery voltage.
	Vcc float32
}

// clientIDSuffix keeps the reporter from taking over the controller's session.
const clientIDSuffix = "-reporter"

// errNoBroker is returned when neither config nor flags name a broker.
var errNoBroker = errors.New("mqtt broker is not configured")

// Run publishes a single report the way a contact sensor would.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarmctl-report")

	mac, payload, err := Build(opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	radioOpts := radio.OptionsFromConfig(cfg)
	radioOpts.ClientID += clientIDSuffix

	if opts.Broker != "" {
		radioOpts.Broker = opts.Broker
	}

	if radioOpts.Broker == "" {
		return errNoBroker
	}

	publisher, err := radio.NewPublisher(ctx, radioOpts)
	if err != nil {
		return err
	}

	defer publisher.Close()

	if err = publisher.Publish(ctx, mac, payload); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Report sent", "mac", mac.String(), "state", payload.State.SensorState().String())

	return nil
}

// Build validates the options and assembles the report.
func Build(opts *Options) (net.HardwareAddr, radio.Payload, error) {
	mac, err := radio.ParseMAC(opts.MAC)
	if err != nil {
		return nil, radio.Payload{}, err
	}

	state, err := domain.ParseSensorState(opts.State)
	if err != nil {
		return nil, radio.Payload{}, err
	}

	return mac, radio.Payload{State: radio.ReportStateFrom(state), Vcc: opts.Vcc}, nil
}
