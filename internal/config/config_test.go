package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjroth89/sous-vide/internal/logic"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100*time.Millisecond, cfg.Control.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Control.TickInterval)
	assert.Equal(t, 4, cfg.Control.BufferCapacity)
	assert.Equal(t, "immediate", cfg.Control.Countdown)
	assert.Equal(t, 3, cfg.Control.MaxSensorFailures)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.True(t, cfg.GPIO.ActiveLow)
	assert.Equal(t, []string{"123A", "456B", "789C", "*0#D"}, cfg.GPIO.Keypad.Keymap)
	assert.True(t, cfg.Pump.Enabled)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
control:
  tick_interval: 30s
  poll_interval: 250ms
  buffer_capacity: 3
  countdown: at_target
gpio:
  heater_pin: 23
  active_low: false
pump:
  enabled: false
mqtt:
  broker: tcp://broker.local:1883
  heartbeat: 5m
display:
  serial_port: /dev/ttyUSB0
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Control.TickInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Control.PollInterval)
	assert.Equal(t, 3, cfg.Control.BufferCapacity)
	assert.Equal(t, "at_target", cfg.Control.Countdown)
	assert.Equal(t, 23, cfg.GPIO.HeaterPin)
	assert.False(t, cfg.GPIO.ActiveLow)
	assert.False(t, cfg.Pump.Enabled)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, 5*time.Minute, cfg.MQTT.Heartbeat)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Display.SerialPort)
	assert.Equal(t, 9600, cfg.Display.Baud)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 27, cfg.GPIO.PumpPin)
	assert.Equal(t, "/sys/bus/w1/devices", cfg.Sensor.W1Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "control: [not, a, map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"poll too slow", func(c *Config) { c.Control.PollInterval = 2 * time.Second }},
		{"bad countdown", func(c *Config) { c.Control.Countdown = "eventually" }},
		{"buffer too large", func(c *Config) { c.Control.BufferCapacity = 12 }},
		{"duration limit beyond clock range", func(c *Config) { c.Control.MaxDurationHours = 3000000 }},
		{"keymap rows", func(c *Config) { c.GPIO.Keypad.Keymap = []string{"123"} }},
		{"keymap cols", func(c *Config) { c.GPIO.Keypad.Keymap = []string{"12", "45", "78", "*0"} }},
		{"shared pin", func(c *Config) { c.GPIO.PumpPin = c.GPIO.HeaterPin }},
		{"negative pin", func(c *Config) { c.GPIO.HeaterPin = -1 }},
		{"mqtt buffer", func(c *Config) { c.MQTT.Buffer = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSharedPinAllowedWithoutPump(t *testing.T) {
	cfg := Default()
	cfg.Pump.Enabled = false
	cfg.GPIO.PumpPin = cfg.GPIO.HeaterPin
	assert.NoError(t, cfg.Validate())
}

func TestSession(t *testing.T) {
	cfg := Default()
	cfg.Control.Countdown = "at_target"
	cfg.Control.MaxDurationHours = 72

	sc := cfg.Session()
	assert.Equal(t, logic.CountdownAtTarget, sc.Countdown)
	assert.Equal(t, 5*time.Second, sc.TickInterval)
	assert.True(t, sc.Pump)
	assert.Equal(t, 100, sc.MaxTargetC)
	assert.Equal(t, 72, sc.MaxDurationHours)
}
