//go:build linux

package sound

import (
	"context"
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
)

// GPIOOutput drives a siren relay from a GPIO line: high while a sound plays.
type GPIOOutput struct {
	// chip is the opened GPIO character device.
	chip *gpiocdev.Chip
	// line is the requested output line.
	line *gpiocdev.Line
}

// NewGPIOOutput requests line on chip as an output, initially low.
func NewGPIOOutput(chipName string, line int) (*GPIOOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	l, err := chip.RequestLine(line, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("alarm-siren"))
	if err != nil {
		_ = chip.Close()

		return nil, fmt.Errorf("request siren line %d: %w", line, err)
	}

	return &GPIOOutput{
		chip: chip,
		line: l,
	}, nil
}

// Start raises the line.
func (o *GPIOOutput) Start(ctx context.Context, sound domain.Sound) error {
	logger.DebugKV(ctx, "Siren on", "sound", sound)

	if err := o.line.SetValue(1); err != nil {
		return fmt.Errorf("set siren line: %w", err)
	}

	return nil
}

// Stop lowers the line.
func (o *GPIOOutput) Stop(ctx context.Context) error {
	logger.Debug(ctx, "Siren off")

	if err := o.line.SetValue(0); err != nil {
		return fmt.Errorf("clear siren line: %w", err)
	}

	return nil
}

// Close lowers the line and releases the GPIO resources, so the siren is
// never left sounding after the controller exits.
func (o *GPIOOutput) Close() error {
	var errs []error

	if o.line != nil {
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear siren line: %w", err))
		}

		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close siren line: %w", err))
		}
	}

	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gpio chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
