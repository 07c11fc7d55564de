//go:build !linux

package sound

import (
	"context"
	"errors"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// errGPIOUnsupported is returned on platforms without the GPIO character device.
var errGPIOUnsupported = errors.New("gpio siren requires linux")

// GPIOOutput is not available on non-Linux platforms.
type GPIOOutput struct{}

// NewGPIOOutput returns an error on non-Linux platforms.
func NewGPIOOutput(string, int) (*GPIOOutput, error) {
	return nil, errGPIOUnsupported
}

// Start is not implemented on non-Linux platforms.
func (*GPIOOutput) Start(context.Context, domain.Sound) error {
	return errGPIOUnsupported
}

// Stop is not implemented on non-Linux platforms.
func (*GPIOOutput) Stop(context.Context) error {
	return errGPIOUnsupported
}

// Close is a no-op on non-Linux platforms.
func (*GPIOOutput) Close() error {
	return nil
}
