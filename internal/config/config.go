// Package config handles YAML configuration loading, environment variable
// expansion and validation for signalbot.
package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// phonePattern matches an E.164 number: a plus sign and 5-15 digits.
var phonePattern = regexp.MustCompile(`^\+[0-9]{5,15}$`)

// Duration is a time.Duration that reads and writes YAML in Go duration
// syntax ("30s", "5m") instead of raw nanoseconds.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the top-level configuration structure.
type Config struct {
	// SignalService is the host:port of the signal-cli-rest-api instance.
	SignalService string `yaml:"signal_service"`

	// PhoneNumber is the bot's own account, used to scope the relay
	// endpoints.
	PhoneNumber string `yaml:"phone_number"`

	// HTTPTimeout bounds each egress call. Zero means the 60 s default.
	HTTPTimeout Duration `yaml:"http_timeout"`

	LogLevel string `yaml:"log_level"`

	// LogMaskNumbers masks phone numbers in log output.
	LogMaskNumbers bool `yaml:"log_mask_numbers"`

	Receive   ReceiveConfig   `yaml:"receive"`
	Admin     AdminConfig     `yaml:"admin"`
	History   HistoryConfig   `yaml:"history"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Schedule  []ScheduleEntry `yaml:"schedule,omitempty"`
}

// ReceiveConfig tunes the receive pump.
type ReceiveConfig struct {
	// QueueSize bounds the decoded-message queue between the stream and
	// the dispatch workers.
	QueueSize int `yaml:"queue_size"`

	// Workers bounds concurrent handler execution.
	Workers int `yaml:"workers"`

	// SkipMalformed drops undecodable envelopes instead of restarting the
	// stream on the first one.
	SkipMalformed bool `yaml:"skip_malformed"`

	// ReconnectWait is the pause between receive sessions after a stream
	// fault.
	ReconnectWait Duration `yaml:"reconnect_wait"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	// Listen is the bind address. Empty disables the server.
	Listen string `yaml:"listen"`
}

// HistoryConfig configures the local message log.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables the log.
	Path string `yaml:"path"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	// Endpoint is the OTLP/HTTP collector address. Empty disables tracing.
	Endpoint string `yaml:"endpoint"`
}

// ScheduleEntry is one cron-scheduled outbound message.
type ScheduleEntry struct {
	Name      string `yaml:"name"`
	Cron      string `yaml:"cron"`
	Recipient string `yaml:"recipient"`
	Message   string `yaml:"message"`
}

// Defaults applies default values to unset fields.
func (c *Config) Defaults() {
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = Duration(60 * time.Second)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Receive.QueueSize == 0 {
		c.Receive.QueueSize = 64
	}
	if c.Receive.Workers == 0 {
		c.Receive.Workers = 8
	}
	if c.Receive.ReconnectWait == 0 {
		c.Receive.ReconnectWait = Duration(5 * time.Second)
	}
}

// Validate checks field constraints. It is called after Defaults.
func (c *Config) Validate() error {
	if c.SignalService == "" {
		return errors.New("config: signal_service is required")
	}
	if _, _, err := net.SplitHostPort(c.SignalService); err != nil {
		return fmt.Errorf("config: signal_service must be host:port, got %q", c.SignalService)
	}

	if c.PhoneNumber == "" {
		return errors.New("config: phone_number is required")
	}
	if !phonePattern.MatchString(c.PhoneNumber) {
		return fmt.Errorf("config: phone_number must be E.164 (e.g. +4915551234567), got %q", c.PhoneNumber)
	}

	if c.HTTPTimeout < Duration(time.Second) || c.HTTPTimeout > Duration(10*time.Minute) {
		return fmt.Errorf("config: http_timeout must be 1s-10m, got %s", c.HTTPTimeout)
	}
	if c.Receive.QueueSize < 1 || c.Receive.QueueSize > 65536 {
		return fmt.Errorf("config: receive.queue_size must be 1-65536, got %d", c.Receive.QueueSize)
	}
	if c.Receive.Workers < 1 || c.Receive.Workers > 1024 {
		return fmt.Errorf("config: receive.workers must be 1-1024, got %d", c.Receive.Workers)
	}
	if c.Receive.ReconnectWait < Duration(100*time.Millisecond) || c.Receive.ReconnectWait > Duration(time.Hour) {
		return fmt.Errorf("config: receive.reconnect_wait must be 100ms-1h, got %s", c.Receive.ReconnectWait)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}

	names := make(map[string]struct{}, len(c.Schedule))
	for i, entry := range c.Schedule {
		if entry.Name == "" {
			return fmt.Errorf("config: schedule[%d]: name is required", i)
		}
		if _, dup := names[entry.Name]; dup {
			return fmt.Errorf("config: duplicate schedule name %q", entry.Name)
		}
		names[entry.Name] = struct{}{}

		if entry.Cron == "" {
			return fmt.Errorf("config: schedule %q: cron is required", entry.Name)
		}
		if entry.Recipient == "" {
			return fmt.Errorf("config: schedule %q: recipient is required", entry.Name)
		}
		if entry.Message == "" {
			return fmt.Errorf("config: schedule %q: message is required", entry.Name)
		}
	}

	return nil
}
