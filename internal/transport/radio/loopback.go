package radio

import (
	"context"
	"errors"
	"net"
	"sync"
)

// errNotStarted is returned when delivering through a Loopback before Start.
var errNotStarted = errors.New("loopback source not started")

// Loopback is an in-process Source: reports passed to Deliver reach the
// handler directly. It backs tests and setups without a broker.
type Loopback struct {
	// mu serialises deliveries, mirroring the single delivery goroutine of MQTT.
	mu sync.Mutex
	// ctx is the context given to Start.
	ctx context.Context //nolint:containedctx // Handed to the handler on every delivery.
	// handler is nil until Start and after Close.
	handler Handler
}

// NewLoopback creates an idle Loopback.
func NewLoopback() *Loopback {
	return new(Loopback)
}

// Start registers handler.
func (l *Loopback) Start(ctx context.Context, handler Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ctx = ctx
	l.handler = handler

	return nil
}

// Deliver hands one raw report to the handler.
func (l *Loopback) Deliver(sender net.HardwareAddr, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handler == nil {
		return errNotStarted
	}

	l.handler(l.ctx, sender, payload)

	return nil
}

// Report encodes p and delivers it as sensor mac.
func (l *Loopback) Report(mac net.HardwareAddr, p Payload) error {
	return l.Deliver(mac, EncodePayload(p))
}

// Close stops delivery.
func (l *Loopback) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handler = nil
}
