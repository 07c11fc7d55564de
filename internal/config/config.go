package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by alarm-controller and alarmctl.
type Config struct {
	// ServerAddress is the gRPC address of the controller's operator API.
	ServerAddress string `yaml:"server_addr"`
	// MetricsAddress is the HTTP listen address for Prometheus metrics, empty disables it.
	MetricsAddress string `yaml:"metrics_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of log messages (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// StateFile is the path of the persisted alarm state.
	StateFile string `yaml:"state_file"`
	// SensorsFile is the path of the JSON sensor registry.
	SensorsFile string `yaml:"sensors_file"`
	// ActivityLogFile is the path of the activity log blob.
	ActivityLogFile string `yaml:"activity_log_file"`
	// Alarm holds the timing parameters of the alarm core.
	Alarm Alarm `yaml:"alarm"`
	// MQTT holds the sensor report transport settings.
	MQTT MQTT `yaml:"mqtt"`
	// Siren holds the GPIO siren output settings.
	Siren Siren `yaml:"siren"`
}

// Alarm holds scheduler and policy timings.
type Alarm struct {
	// TickInterval is the period of one scheduler iteration.
	TickInterval time.Duration `yaml:"tick_interval"`
	// SweepInterval is the slow cadence of alarm resounding and the staleness sweep.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// ArmedTimeout is the staleness limit of a sensor while armed.
	ArmedTimeout time.Duration `yaml:"armed_timeout"`
	// DisarmedTimeout is the staleness limit of a sensor while not armed.
	DisarmedTimeout time.Duration `yaml:"disarmed_timeout"`
	// FaultChimeInterval is the minimum gap between two fault chimes of one sensor.
	FaultChimeInterval time.Duration `yaml:"fault_chime_interval"`
	// FlushInterval is the maximum age of unflushed non-critical activity log entries.
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MQTT configures the broker that relays contact sensor reports.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883. Empty disables the receiver.
	Broker string `yaml:"broker"`
	// ClientID identifies this controller on the broker.
	ClientID string `yaml:"client_id"`
	// TopicPrefix is the topic root; reports arrive on <prefix>/<mac>/report.
	TopicPrefix string `yaml:"topic_prefix"`
	// Username authenticates against the broker when set.
	Username string `yaml:"username"`
	// Password authenticates against the broker when set.
	Password string `yaml:"password"`
	// ConnectRetries bounds the connection attempts made at startup.
	ConnectRetries uint64 `yaml:"connect_retries"`
}

// Siren configures the GPIO line driving the sounder.
type Siren struct {
	// Enabled selects the GPIO output instead of the log-only player.
	Enabled bool `yaml:"enabled"`
	// Chip is the GPIO character device name, e.g. gpiochip0.
	Chip string `yaml:"chip"`
	// Line is the line offset on the chip.
	Line int `yaml:"line"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-controller.yaml"

	// DefaultStateFilename is the default filename of the persisted alarm state.
	DefaultStateFilename = "alarm_state.dat"

	// DefaultSensorsFilename is the default filename of the sensor registry.
	DefaultSensorsFilename = "sensors.json"

	// DefaultActivityLogFilename is the default filename of the activity log.
	DefaultActivityLogFilename = "activity.log"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultTickInterval is the default scheduler iteration period.
	DefaultTickInterval = 10 * time.Millisecond

	// DefaultSweepInterval is the default slow cadence.
	DefaultSweepInterval = time.Second

	// DefaultArmedTimeout is the default sensor staleness limit while armed.
	DefaultArmedTimeout = time.Minute

	// DefaultDisarmedTimeout is the default sensor staleness limit while not armed.
	DefaultDisarmedTimeout = 2 * time.Minute

	// DefaultFaultChimeInterval matches the sensor report period.
	DefaultFaultChimeInterval = 30 * time.Second

	// DefaultFlushInterval is the default activity log lazy flush period.
	DefaultFlushInterval = 5 * time.Minute

	// DefaultClientID is the default MQTT client identifier.
	DefaultClientID = "alarm-controller"

	// DefaultTopicPrefix is the default MQTT topic root.
	DefaultTopicPrefix = "alarm/sensors"

	// DefaultConnectRetries is the default number of broker connection attempts.
	DefaultConnectRetries = 5

	// DefaultSirenChip is the default GPIO chip.
	DefaultSirenChip = "gpiochip0"

	// DefaultFilePermissions is the default file permission for config and data files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errInvalidTimings is returned when the armed timeout exceeds the disarmed one.
	errInvalidTimings = errors.New("armed timeout must not exceed disarmed timeout")
	// errInvalidSirenLine is returned for a negative GPIO line offset.
	errInvalidSirenLine = errors.New("siren line must not be negative")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Broker credentials may live here.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for omitted values.
//
//nolint:cyclop // A flat list of defaults reads better than a table.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics socket: %w", err)
		}
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	if settings.SensorsFile == "" {
		settings.SensorsFile = DefaultSensorsFilename
	}

	if settings.ActivityLogFile == "" {
		settings.ActivityLogFile = DefaultActivityLogFilename
	}

	if err := validateAlarm(&settings.Alarm); err != nil {
		return err
	}

	if err := validateMQTT(&settings.MQTT); err != nil {
		return err
	}

	if settings.Siren.Chip == "" {
		settings.Siren.Chip = DefaultSirenChip
	}

	if settings.Siren.Line < 0 {
		return errInvalidSirenLine
	}

	return nil
}

// validateAlarm fills default timings and checks their relation.
func validateAlarm(alarm *Alarm) error {
	if alarm.TickInterval <= 0 {
		alarm.TickInterval = DefaultTickInterval
	}

	if alarm.SweepInterval <= 0 {
		alarm.SweepInterval = DefaultSweepInterval
	}

	if alarm.ArmedTimeout <= 0 {
		alarm.ArmedTimeout = DefaultArmedTimeout
	}

	if alarm.DisarmedTimeout <= 0 {
		alarm.DisarmedTimeout = DefaultDisarmedTimeout
	}

	if alarm.FaultChimeInterval <= 0 {
		alarm.FaultChimeInterval = DefaultFaultChimeInterval
	}

	if alarm.FlushInterval <= 0 {
		alarm.FlushInterval = DefaultFlushInterval
	}

	// Staleness is more dangerous while armed.
	if alarm.ArmedTimeout > alarm.DisarmedTimeout {
		return errInvalidTimings
	}

	return nil
}

// validateMQTT fills transport defaults and checks the broker URL.
func validateMQTT(mqtt *MQTT) error {
	if mqtt.ClientID == "" {
		mqtt.ClientID = DefaultClientID
	}

	mqtt.TopicPrefix = strings.Trim(mqtt.TopicPrefix, "/")
	if mqtt.TopicPrefix == "" {
		mqtt.TopicPrefix = DefaultTopicPrefix
	}

	if mqtt.ConnectRetries == 0 {
		mqtt.ConnectRetries = DefaultConnectRetries
	}

	if mqtt.Broker == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(mqtt.Broker); err != nil {
		return fmt.Errorf("invalid MQTT broker URI: %w", err)
	}

	return nil
}
