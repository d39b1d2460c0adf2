package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the mceremoted daemon.
//
// This is intentionally user-facing and stable-ish. Keep defaults and
// validation centralized so the rest of the code can assume a well-formed
// config.
//
// The command-to-key table is compiled in; config covers deployment
// concerns only (which devices, which pins, which sockets).
type Config struct {
	// LogLevel is the initial verbosity; the debug channel can change it
	// at runtime.
	LogLevel string `yaml:"log_level"`

	// Socket is the unix socket path of the debug/operator channel.
	Socket string `yaml:"socket"`

	// Listen is the HTTP/websocket bind address. Empty disables the
	// status server.
	Listen string `yaml:"listen"`

	// Source selects where IR frames come from.
	Source SourceConfig `yaml:"source"`

	// HID names the USB gadget endpoints presented to the host PC.
	HID HIDConfig `yaml:"hid"`

	// Power wires the rail sense line and the power switch line.
	Power PowerConfig `yaml:"power"`

	// Timing holds the engine cadence knobs.
	Timing TimingConfig `yaml:"timing"`

	// MQTT configures the optional event publisher.
	MQTT MQTTConfig `yaml:"mqtt"`
}

// Source kinds.
const (
	sourceLirc  = "lirc"  // raw pulses from /dev/lircN, decoded in-process
	sourceLircd = "lircd" // pre-decoded button lines from a lircd socket
)

type SourceConfig struct {
	Kind        string `yaml:"kind"`
	LircDevice  string `yaml:"lirc_device"`
	LircdSocket string `yaml:"lircd_socket"`
}

type HIDConfig struct {
	KeyboardDevice string `yaml:"keyboard_device"`
	ConsumerDevice string `yaml:"consumer_device"`
}

type PowerConfig struct {
	Chip       string `yaml:"chip"`
	SensePin   int    `yaml:"sense_pin"`
	ButtonPin  int    `yaml:"button_pin"`
	PulseMS    int    `yaml:"pulse_ms"`
	RailPollMS int    `yaml:"rail_poll_ms"`
}

type TimingConfig struct {
	PollHz           int `yaml:"poll_hz"`
	ReleaseTimeoutMS int `yaml:"release_timeout_ms"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and current CLI defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Socket:   "/tmp/mceremoted.sock",
		Listen:   ":8989",
		Source: SourceConfig{
			Kind:        sourceLirc,
			LircDevice:  "/dev/lirc0",
			LircdSocket: "/var/run/lirc/lircd",
		},
		HID: HIDConfig{
			KeyboardDevice: "/dev/hidg0",
			ConsumerDevice: "/dev/hidg1",
		},
		Power: PowerConfig{
			Chip:       "gpiochip0",
			SensePin:   23,
			ButtonPin:  24,
			PulseMS:    int(defaultPowerPulse / time.Millisecond),
			RailPollMS: int(defaultRailPoll / time.Millisecond),
		},
		Timing: TimingConfig{
			PollHz:           defaultPollHz,
			ReleaseTimeoutMS: int(defaultReleaseTimeout / time.Millisecond),
		},
		MQTT: MQTTConfig{
			Broker:      "",
			ClientID:    "mceremoted",
			TopicPrefix: "mceremoted",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are
	// allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Flags should pass pointers; each override is only applied if the pointer
// is non-nil (even if it points at a zero value). main.go decides what
// flags exist.
type FlagOverrides struct {
	LogLevel    *string
	Socket      *string
	Listen      *string
	SourceKind  *string
	LircDevice  *string
	LircdSocket *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is
// ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	if o.Socket != nil {
		cfg.Socket = *o.Socket
	}
	if o.Listen != nil {
		cfg.Listen = *o.Listen
	}
	if o.SourceKind != nil {
		cfg.Source.Kind = *o.SourceKind
	}
	if o.LircDevice != nil {
		cfg.Source.LircDevice = *o.LircDevice
	}
	if o.LircdSocket != nil {
		cfg.Source.LircdSocket = *o.LircdSocket
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are
// applied.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		return errors.New("log_level must not be empty")
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Socket == "" {
		return errors.New("socket must not be empty")
	}
	// Listen may be empty: that disables the HTTP/websocket server.

	switch c.Source.Kind {
	case sourceLirc:
		if c.Source.LircDevice == "" {
			return errors.New("source.lirc_device must not be empty")
		}
	case sourceLircd:
		if c.Source.LircdSocket == "" {
			return errors.New("source.lircd_socket must not be empty")
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q", sourceLirc, sourceLircd)
	}

	if c.HID.KeyboardDevice == "" {
		return errors.New("hid.keyboard_device must not be empty")
	}
	if c.HID.ConsumerDevice == "" {
		return errors.New("hid.consumer_device must not be empty")
	}

	if c.Power.Chip == "" {
		return errors.New("power.chip must not be empty")
	}
	if c.Power.SensePin < 0 {
		return errors.New("power.sense_pin must be >= 0")
	}
	if c.Power.ButtonPin < 0 {
		return errors.New("power.button_pin must be >= 0")
	}
	if c.Power.SensePin == c.Power.ButtonPin {
		return errors.New("power.sense_pin and power.button_pin must differ")
	}
	if c.Power.PulseMS <= 0 {
		return errors.New("power.pulse_ms must be > 0")
	}
	if c.Power.RailPollMS < 0 {
		return errors.New("power.rail_poll_ms must be >= 0 (0 disables the poll)")
	}

	if c.Timing.PollHz <= 0 || c.Timing.PollHz > 1000 {
		return errors.New("timing.poll_hz must be between 1 and 1000")
	}
	if c.Timing.ReleaseTimeoutMS <= 0 {
		return errors.New("timing.release_timeout_ms must be > 0")
	}

	if c.MQTT.Broker != "" {
		if c.MQTT.ClientID == "" {
			return errors.New("mqtt.broker is set but mqtt.client_id is empty")
		}
		if c.MQTT.TopicPrefix == "" {
			return errors.New("mqtt.broker is set but mqtt.topic_prefix is empty")
		}
	}

	return nil
}

// ToEngineTuning converts file config into the reducer's timing knobs.
func (c *Config) ToEngineTuning() EngineTuning {
	return EngineTuning{
		Hold: HoldConfig{
			ReleaseTimeout: time.Duration(c.Timing.ReleaseTimeoutMS) * time.Millisecond,
		},
		RailPollEvery: time.Duration(c.Power.RailPollMS) * time.Millisecond,
	}
}

// PulseWidth returns the power pulse hold time.
func (c *Config) PulseWidth() time.Duration {
	return time.Duration(c.Power.PulseMS) * time.Millisecond
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
