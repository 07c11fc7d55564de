package radio

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/alarm-controller/internal/config"
	"github.com/oshokin/alarm-controller/internal/logger"
)

const (
	// reportSuffix is the last topic level of sensor reports.
	reportSuffix = "report"
	// reportQoS is at-least-once; a duplicate report is harmless.
	reportQoS byte = 1
	// disconnectQuiesce is how long Disconnect waits for in-flight work, in milliseconds.
	disconnectQuiesce = 250
)

// errConnectTimeout is returned when the broker does not answer in time.
var errConnectTimeout = errors.New("mqtt connect timed out")

// Handler receives one raw report. It is called from the transport's
// delivery goroutine, one message at a time, and must not block.
type Handler func(ctx context.Context, sender net.HardwareAddr, payload []byte)

// Source delivers sensor reports to a Handler until closed.
type Source interface {
	// Start begins delivery to handler.
	Start(ctx context.Context, handler Handler) error
	// Close stops delivery.
	Close()
}

// Options configure the broker connection.
type Options struct {
	// Broker is the broker URL.
	Broker string
	// ClientID identifies the client on the broker.
	ClientID string
	// TopicPrefix is the topic root of sensor reports.
	TopicPrefix string
	// Username is the broker user, empty for anonymous access.
	Username string
	// Password is the broker password.
	Password string
	// ConnectRetries bounds the connection attempts.
	ConnectRetries uint64
	// Timeout bounds each broker round trip.
	Timeout time.Duration
}

// OptionsFromConfig extracts the broker settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Broker:         cfg.MQTT.Broker,
		ClientID:       cfg.MQTT.ClientID,
		TopicPrefix:    cfg.MQTT.TopicPrefix,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		ConnectRetries: cfg.MQTT.ConnectRetries,
		Timeout:        cfg.Timeout,
	}
}

// ReportTopic returns the topic a sensor publishes its reports on.
func ReportTopic(prefix string, mac net.HardwareAddr) string {
	return strings.TrimSuffix(prefix, "/") + "/" + hex.EncodeToString(mac) + "/" + reportSuffix
}

// subscription returns the wildcard filter matching every sensor's reports.
func subscription(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/+/" + reportSuffix
}

// clientOptions builds the paho options shared by the receiver and the publisher.
func clientOptions(opts Options) *paho.ClientOptions {
	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(opts.Timeout)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	return clientOpts
}

// connect dials the broker with exponential backoff.
func connect(ctx context.Context, clientOpts *paho.ClientOptions, opts Options) (paho.Client, error) {
	var client paho.Client

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), opts.ConnectRetries),
		ctx,
	)

	err := backoff.Retry(func() error {
		client = paho.NewClient(clientOpts)

		token := client.Connect()
		if !token.WaitTimeout(opts.Timeout) {
			client.Disconnect(0)

			return errConnectTimeout
		}

		if err := token.Error(); err != nil {
			logger.WarnKV(ctx, "Failed to connect to MQTT broker", "broker", opts.Broker, "error", err)

			return err
		}

		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", opts.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", opts.Broker)

	return client, nil
}

// Receiver delivers sensor reports from the broker to a Handler.
type Receiver struct {
	// opts is the connection configuration.
	opts Options
	// client is the live connection, nil until Start succeeds.
	client paho.Client
}

// NewReceiver creates an MQTT report source.
func NewReceiver(opts Options) *Receiver {
	return &Receiver{
		opts: opts,
	}
}

// Start connects and subscribes. The subscription is renewed on every
// reconnect. Messages are delivered in order from a single goroutine.
func (r *Receiver) Start(ctx context.Context, handler Handler) error {
	ctx = logger.WithName(ctx, "radio")
	filter := subscription(r.opts.TopicPrefix)

	onMessage := func(_ paho.Client, msg paho.Message) {
		handleMessage(ctx, r.opts.TopicPrefix, msg, handler)
	}

	clientOpts := clientOptions(r.opts).
		SetOrderMatters(true).
		SetOnConnectHandler(func(client paho.Client) {
			token := client.Subscribe(filter, reportQoS, onMessage)
			if !token.WaitTimeout(r.opts.Timeout) {
				logger.ErrorKV(ctx, "Subscription timed out", "topic", filter)

				return
			}

			if err := token.Error(); err != nil {
				logger.ErrorKV(ctx, "Failed to subscribe", "topic", filter, "error", err)

				return
			}

			logger.InfoKV(ctx, "Subscribed to sensor reports", "topic", filter)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WarnKV(ctx, "Lost connection to MQTT broker", "error", err)
		})

	client, err := connect(ctx, clientOpts, r.opts)
	if err != nil {
		return err
	}

	r.client = client

	return nil
}

// Close unsubscribes and disconnects.
func (r *Receiver) Close() {
	if r.client == nil {
		return
	}

	r.client.Unsubscribe(subscription(r.opts.TopicPrefix)).WaitTimeout(r.opts.Timeout)
	r.client.Disconnect(disconnectQuiesce)
	r.client = nil
}

// handleMessage extracts the sender from the topic and passes the report on.
func handleMessage(ctx context.Context, prefix string, msg paho.Message, handler Handler) {
	sender, err := senderFromTopic(prefix, msg.Topic())
	if err != nil {
		logger.WarnKV(ctx, "Ignoring report on unexpected topic", "topic", msg.Topic(), "error", err)

		return
	}

	handler(ctx, sender, msg.Payload())
}

// errUnexpectedTopic is returned for topics outside <prefix>/<mac>/report.
var errUnexpectedTopic = errors.New("unexpected report topic")

// senderFromTopic parses <prefix>/<mac>/report.
func senderFromTopic(prefix, topic string) (net.HardwareAddr, error) {
	rest, ok := strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
	if !ok {
		return nil, errUnexpectedTopic
	}

	mac, suffix, ok := strings.Cut(rest, "/")
	if !ok || suffix != reportSuffix {
		return nil, errUnexpectedTopic
	}

	return ParseMAC(mac)
}

// Publisher sends reports on behalf of a sensor.
type Publisher struct {
	// opts is the connection configuration.
	opts Options
	// client is the live connection.
	client paho.Client
}

// NewPublisher connects to the broker.
func NewPublisher(ctx context.Context, opts Options) (*Publisher, error) {
	client, err := connect(ctx, clientOptions(opts), opts)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		opts:   opts,
		client: client,
	}, nil
}

// Publish sends one report as sensor mac.
func (p *Publisher) Publish(ctx context.Context, mac net.HardwareAddr, payload Payload) error {
	topic := ReportTopic(p.opts.TopicPrefix, mac)

	token := p.client.Publish(topic, reportQoS, false, EncodePayload(payload))
	if !token.WaitTimeout(p.opts.Timeout) {
		return fmt.Errorf("publish to %s: %w", topic, errConnectTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	logger.DebugKV(ctx, "Report published", "topic", topic, "state", payload.State.SensorState())

	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}
