// Package logic contains the pure cook-cycle state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"math"
	"time"
)

// State is the current phase of a cook session.
type State string

const (
	StateIdle                 State = "IDLE"
	StateAwaitingTemperature  State = "AWAITING_TEMPERATURE"
	StateAwaitingDuration     State = "AWAITING_DURATION"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateCooking              State = "COOKING"
	StateCompleted            State = "COMPLETED"
)

// Keys with a meaning to the state machine. Digits are '0'..'9'.
const (
	KeyReset   = '*'
	KeyConfirm = '#'
)

// EventType identifies something the operator should be told about.
type EventType string

const (
	EventSessionStarted  EventType = "SESSION_STARTED"
	EventTargetSet       EventType = "TARGET_SET"
	EventDurationSet     EventType = "DURATION_SET"
	EventInvalidInput    EventType = "INVALID_INPUT"
	EventCookStarted     EventType = "COOK_STARTED"
	EventPumpStarted     EventType = "PUMP_STARTED"
	EventCountdown       EventType = "COUNTDOWN_STARTED"
	EventStatus          EventType = "STATUS"
	EventSensorFault     EventType = "SENSOR_FAULT"
	EventHeaterForcedOff EventType = "HEATER_FORCED_OFF"
	EventCompleted       EventType = "COMPLETED"
	EventCancelled       EventType = "CANCELLED"
)

// Level is the severity of an event.
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Event is a notification produced by the session. Lines holds the
// human-readable status lines in display order.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Level     Level
	Lines     []string
	Snapshot  Snapshot
}

// CountdownMode selects when the cycle clock starts.
type CountdownMode string

const (
	// CountdownImmediate starts the clock when cooking is confirmed.
	CountdownImmediate CountdownMode = "immediate"
	// CountdownAtTarget starts the clock on the first reading at or above target.
	CountdownAtTarget CountdownMode = "at_target"
)

// Config parameterizes a Session.
type Config struct {
	BufferCapacity    int
	TickInterval      time.Duration
	Pump              bool
	Countdown         CountdownMode
	MaxSensorFailures int
	MaxTargetC        int // 0 = no limit
	MaxDurationHours  int // 0 = no limit
}

// Defaults for Config fields left at zero.
const (
	DefaultBufferCapacity    = 4
	DefaultTickInterval      = 5 * time.Second
	DefaultMaxSensorFailures = 3
	MaxBufferCapacity        = 9

	// LongestCookHours is the largest duration a CycleClock can hold.
	LongestCookHours = int(math.MaxInt64 / int64(time.Hour))
)

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.BufferCapacity < 1 || c.BufferCapacity > MaxBufferCapacity {
		return fmt.Errorf("buffer capacity %d out of range 1..%d", c.BufferCapacity, MaxBufferCapacity)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	switch c.Countdown {
	case CountdownImmediate, CountdownAtTarget:
	default:
		return fmt.Errorf("unknown countdown mode %q", c.Countdown)
	}
	if c.MaxSensorFailures < 1 {
		return fmt.Errorf("max sensor failures must be at least 1, got %d", c.MaxSensorFailures)
	}
	if c.MaxTargetC < 0 || c.MaxDurationHours < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if c.MaxDurationHours > LongestCookHours {
		return fmt.Errorf("max duration %dh exceeds %dh", c.MaxDurationHours, LongestCookHours)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.BufferCapacity == 0 {
		c.BufferCapacity = DefaultBufferCapacity
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Countdown == "" {
		c.Countdown = CountdownImmediate
	}
	if c.MaxSensorFailures == 0 {
		c.MaxSensorFailures = DefaultMaxSensorFailures
	}
	return c
}

// Snapshot is a value copy of the session's observable state.
type Snapshot struct {
	State            State
	TargetC          int
	DurationHours    int
	Input            string
	TemperatureC     float64
	ReadingValid     bool
	Heater           bool
	Pump             bool
	CountdownStarted bool
	Elapsed          time.Duration
	Remaining        time.Duration
	Total            time.Duration
	SensorFailures   int
}
