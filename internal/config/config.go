// Package config loads the controller configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jjroth89/sous-vide/internal/logger"
	"github.com/jjroth89/sous-vide/internal/logic"
)

// MaxPollInterval bounds how long a key press may wait to be noticed.
const MaxPollInterval = time.Second

// Config represents the daemon configuration.
type Config struct {
	Control ControlConfig `yaml:"control"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Pump    PumpConfig    `yaml:"pump"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Display DisplayConfig `yaml:"display"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// ControlConfig holds the cook-cycle parameters.
type ControlConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval"`
	TickInterval      time.Duration `yaml:"tick_interval"`
	BufferCapacity    int           `yaml:"buffer_capacity"`
	Countdown         string        `yaml:"countdown"` // "immediate" or "at_target"
	MaxSensorFailures int           `yaml:"max_sensor_failures"`
	MaxTargetC        int           `yaml:"max_target_c"`   // 0 = no limit
	MaxDurationHours  int           `yaml:"max_duration_h"` // 0 = no limit
}

// GPIOConfig holds relay and keypad wiring (BCM line offsets).
type GPIOConfig struct {
	Chip      string       `yaml:"chip"`
	HeaterPin int          `yaml:"heater_pin"`
	PumpPin   int          `yaml:"pump_pin"`
	ActiveLow bool         `yaml:"active_low"` // relay energized when the line is driven low
	Keypad    KeypadConfig `yaml:"keypad"`
}

// KeypadConfig describes the matrix keypad.
type KeypadConfig struct {
	Rows   []int    `yaml:"rows"`
	Cols   []int    `yaml:"cols"`
	Keymap []string `yaml:"keymap"` // one string per row
}

// PumpConfig enables the circulation pump relay.
type PumpConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SensorConfig selects the DS18B20 probe.
type SensorConfig struct {
	Device   string `yaml:"device"` // 1-Wire id, e.g. 28-0316a2795bff; empty = first found
	W1Dir    string `yaml:"w1_dir"`
	Simulate bool   `yaml:"simulate"`
}

// DisplayConfig configures the optional serial character display.
type DisplayConfig struct {
	SerialPort string `yaml:"serial_port"` // empty = disabled
	Baud       int    `yaml:"baud"`
}

// MQTTConfig configures event publishing.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"` // empty = disabled
	ClientID  string        `yaml:"client_id"`
	Device    string        `yaml:"device"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 = disabled
	Buffer    int           `yaml:"buffer"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Control: ControlConfig{
			PollInterval:      100 * time.Millisecond,
			TickInterval:      logic.DefaultTickInterval,
			BufferCapacity:    logic.DefaultBufferCapacity,
			Countdown:         string(logic.CountdownImmediate),
			MaxSensorFailures: logic.DefaultMaxSensorFailures,
			MaxTargetC:        100,
		},
		GPIO: GPIOConfig{
			Chip:      "gpiochip0",
			HeaterPin: 17,
			PumpPin:   27,
			ActiveLow: true,
			Keypad: KeypadConfig{
				Rows:   []int{5, 6, 13, 19},
				Cols:   []int{12, 16, 20, 21},
				Keymap: []string{"123A", "456B", "789C", "*0#D"},
			},
		},
		Pump: PumpConfig{Enabled: true},
		Sensor: SensorConfig{
			W1Dir: "/sys/bus/w1/devices",
		},
		Display: DisplayConfig{Baud: 9600},
		MQTT: MQTTConfig{
			ClientID:  "sous-vide",
			Device:    "sous-vide",
			Heartbeat: 15 * time.Minute,
			Buffer:    100,
		},
		HTTP: HTTPConfig{Addr: ":80"},
		Log:  LogConfig{Level: logger.InfoLevel},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ensureDefaults()
	return cfg, nil
}

// ensureDefaults fills zero values left by a partial file.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Control.PollInterval == 0 {
		c.Control.PollInterval = def.Control.PollInterval
	}
	if c.Control.TickInterval == 0 {
		c.Control.TickInterval = def.Control.TickInterval
	}
	if c.Control.BufferCapacity == 0 {
		c.Control.BufferCapacity = def.Control.BufferCapacity
	}
	if c.Control.Countdown == "" {
		c.Control.Countdown = def.Control.Countdown
	}
	if c.Control.MaxSensorFailures == 0 {
		c.Control.MaxSensorFailures = def.Control.MaxSensorFailures
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if len(c.GPIO.Keypad.Rows) == 0 {
		c.GPIO.Keypad.Rows = def.GPIO.Keypad.Rows
	}
	if len(c.GPIO.Keypad.Cols) == 0 {
		c.GPIO.Keypad.Cols = def.GPIO.Keypad.Cols
	}
	if len(c.GPIO.Keypad.Keymap) == 0 {
		c.GPIO.Keypad.Keymap = def.GPIO.Keypad.Keymap
	}

	if c.Sensor.W1Dir == "" {
		c.Sensor.W1Dir = def.Sensor.W1Dir
	}
	if c.Display.Baud == 0 {
		c.Display.Baud = def.Display.Baud
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Device == "" {
		c.MQTT.Device = def.MQTT.Device
	}
	if c.MQTT.Buffer == 0 {
		c.MQTT.Buffer = def.MQTT.Buffer
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	if c.Control.PollInterval <= 0 || c.Control.PollInterval > MaxPollInterval {
		return fmt.Errorf("control.poll_interval %v must be in (0, %v]", c.Control.PollInterval, MaxPollInterval)
	}
	if err := c.Session().Validate(); err != nil {
		return fmt.Errorf("control: %w", err)
	}

	kp := c.GPIO.Keypad
	if len(kp.Keymap) != len(kp.Rows) {
		return fmt.Errorf("gpio.keypad: %d keymap rows for %d row pins", len(kp.Keymap), len(kp.Rows))
	}
	for i, row := range kp.Keymap {
		if len([]rune(row)) != len(kp.Cols) {
			return fmt.Errorf("gpio.keypad: keymap row %d has %d keys for %d column pins", i, len([]rune(row)), len(kp.Cols))
		}
	}
	if c.GPIO.HeaterPin < 0 || c.GPIO.PumpPin < 0 {
		return errors.New("gpio: pin offsets must not be negative")
	}
	if c.Pump.Enabled && c.GPIO.HeaterPin == c.GPIO.PumpPin {
		return fmt.Errorf("gpio: heater and pump share pin %d", c.GPIO.HeaterPin)
	}

	if c.MQTT.Buffer < 1 {
		return fmt.Errorf("mqtt.buffer must be at least 1, got %d", c.MQTT.Buffer)
	}
	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("mqtt.heartbeat must not be negative")
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q unknown", c.Log.Level)
	}
	return nil
}

// Session converts the control section into a state machine config.
func (c *Config) Session() logic.Config {
	return logic.Config{
		BufferCapacity:    c.Control.BufferCapacity,
		TickInterval:      c.Control.TickInterval,
		Pump:              c.Pump.Enabled,
		Countdown:         logic.CountdownMode(c.Control.Countdown),
		MaxSensorFailures: c.Control.MaxSensorFailures,
		MaxTargetC:        c.Control.MaxTargetC,
		MaxDurationHours:  c.Control.MaxDurationHours,
	}
}
