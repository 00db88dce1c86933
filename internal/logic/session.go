package logic

import (
	"fmt"
	"math"
	"time"
)

// Session is the cook-session state machine. It owns the input buffer,
// target temperature, cook duration, cycle clock and the desired relay
// outputs. It is not safe for concurrent use.
type Session struct {
	cfg Config

	state         State
	buf           *InputBuffer
	targetC       int
	durationHours int
	clock         CycleClock

	heater bool
	pump   bool

	reading      float64
	readingValid bool
	failures     int

	lastTick time.Time
	ticked   bool
}

// NewSession creates an idle session. Zero Config fields take defaults.
func NewSession(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	return &Session{
		cfg:   cfg,
		state: StateIdle,
		buf:   NewInputBuffer(cfg.BufferCapacity),
	}, nil
}

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Heater returns the desired heater relay state.
func (s *Session) Heater() bool { return s.heater }

// Pump returns the desired pump relay state.
func (s *Session) Pump() bool { return s.pump }

// TargetC returns the target temperature, 0 when unset.
func (s *Session) TargetC() int { return s.targetC }

// DurationHours returns the cook duration in hours, 0 when unset.
func (s *Session) DurationHours() int { return s.durationHours }

// TotalMillis returns the length of the current cycle in milliseconds.
func (s *Session) TotalMillis() int64 { return s.clock.Total().Milliseconds() }

// HandleKey routes one key press. Keys outside 0-9, '#' and '*' are ignored.
func (s *Session) HandleKey(key rune, now time.Time) []Event {
	switch {
	case key == KeyReset:
		return s.reset(now)
	case key == KeyConfirm:
		return s.confirm(now)
	case key >= '0' && key <= '9':
		if s.state == StateAwaitingTemperature || s.state == StateAwaitingDuration {
			s.buf.Append(key)
		}
	}
	return nil
}

func (s *Session) reset(now time.Time) []Event {
	wasCooking := s.state == StateCooking

	s.buf.Clear()
	s.targetC = 0
	s.durationHours = 0
	s.clock = CycleClock{}
	s.heater = false
	s.failures = 0
	s.ticked = false
	s.state = StateAwaitingTemperature

	var events []Event
	if wasCooking {
		events = append(events, s.event(now, EventCancelled, LevelWarn,
			"Cooking cancelled. Heating OFF."))
	}
	events = append(events, s.event(now, EventSessionStarted, LevelInfo,
		"Initializing sous-vide setup...",
		"Please type in the target temperature in Celsius and then press '#' to store it:"))
	return events
}

func (s *Session) confirm(now time.Time) []Event {
	switch s.state {
	case StateAwaitingTemperature:
		if s.buf.Len() == 0 {
			return nil
		}
		raw := s.buf.String()
		v, err := s.buf.Take()
		if err != nil || v == 0 || (s.cfg.MaxTargetC > 0 && v > s.cfg.MaxTargetC) {
			return []Event{s.event(now, EventInvalidInput, LevelWarn,
				fmt.Sprintf("Invalid temperature %q.", raw),
				"Please type in the target temperature in Celsius and then press '#' to store it:")}
		}
		s.targetC = v
		s.state = StateAwaitingDuration
		return []Event{s.event(now, EventTargetSet, LevelInfo,
			fmt.Sprintf("Target temperature set to %d°C.", s.targetC),
			"Now please type in the cooking time in hours:")}

	case StateAwaitingDuration:
		if s.buf.Len() == 0 {
			return nil
		}
		raw := s.buf.String()
		v, err := s.buf.Take()
		if err != nil || v == 0 || v > s.maxDurationHours() {
			return []Event{s.event(now, EventInvalidInput, LevelWarn,
				fmt.Sprintf("Invalid cooking time %q.", raw),
				"Now please type in the cooking time in hours:")}
		}
		s.durationHours = v
		s.state = StateAwaitingConfirmation
		return []Event{s.event(now, EventDurationSet, LevelInfo,
			fmt.Sprintf("Cooking time set to %d hours.", s.durationHours),
			"Please review the cooking settings:",
			fmt.Sprintf("Target temperature .... %d°C", s.targetC),
			fmt.Sprintf("Cooking time .......... %d hours", s.durationHours),
			"Press '#' to confirm and start cooking.",
			"Otherwise press '*' to restart set up.")}

	case StateAwaitingConfirmation:
		if s.targetC == 0 || s.durationHours == 0 {
			return nil
		}
		return s.startCooking(now)
	}
	return nil
}

// maxDurationHours is the configured limit, or the clock's range when unset.
func (s *Session) maxDurationHours() int {
	if s.cfg.MaxDurationHours > 0 {
		return s.cfg.MaxDurationHours
	}
	return LongestCookHours
}

func (s *Session) startCooking(now time.Time) []Event {
	s.clock = NewCycleClock(HoursToMillis(s.durationHours))
	if s.cfg.Countdown == CountdownImmediate {
		s.clock.Start(now)
	}
	s.state = StateCooking
	s.failures = 0
	s.ticked = false

	events := []Event{s.event(now, EventCookStarted, LevelInfo,
		fmt.Sprintf("Cooking at %d°C for %d hours.", s.targetC, s.durationHours))}

	if s.cfg.Pump && !s.pump {
		s.pump = true
		events = append(events, s.event(now, EventPumpStarted, LevelInfo, "Starting the water pump."))
	}
	return events
}

// TickDue reports whether the heating loop should run at now. The first
// tick after entering Cooking is due immediately.
func (s *Session) TickDue(now time.Time) bool {
	if s.state != StateCooking {
		return false
	}
	if !s.ticked {
		return true
	}
	d := now.Sub(s.lastTick)
	return d >= s.cfg.TickInterval || d < 0
}

// Tick runs one evaluation of the heating loop with the given sensor result.
// A read error, NaN or infinite reading leaves the heater untouched until
// MaxSensorFailures consecutive failures force it off.
func (s *Session) Tick(now time.Time, reading float64, readErr error) []Event {
	if s.state != StateCooking {
		return nil
	}
	s.lastTick = now
	s.ticked = true

	var events []Event

	if readErr != nil || math.IsNaN(reading) || math.IsInf(reading, 0) {
		s.failures++
		s.readingValid = false
		reason := "invalid reading"
		if readErr != nil {
			reason = readErr.Error()
		}
		events = append(events, s.event(now, EventSensorFault, LevelWarn,
			fmt.Sprintf("Sensor read failed (%d in a row): %s", s.failures, reason)))
		if s.failures >= s.cfg.MaxSensorFailures {
			s.heater = false
			if s.failures == s.cfg.MaxSensorFailures {
				events = append(events, s.event(now, EventHeaterForcedOff, LevelWarn,
					fmt.Sprintf("Sensor failed %d times in a row. Heating forced OFF.", s.failures)))
			}
		}
	} else {
		s.failures = 0
		s.reading = reading
		s.readingValid = true
		s.heater = reading < float64(s.targetC)

		if !s.clock.Started() && reading >= float64(s.targetC) {
			s.clock.Start(now)
			events = append(events, s.event(now, EventCountdown, LevelInfo,
				"Target temperature reached. Countdown started."))
		}
	}

	events = append(events, s.event(now, EventStatus, LevelInfo, s.statusLines(now)...))

	if s.clock.Done(now) {
		s.heater = false
		s.state = StateCompleted
		events = append(events, s.event(now, EventCompleted, LevelInfo, "End of cycle. Enjoy your food!"))
	}
	return events
}

func (s *Session) statusLines(now time.Time) []string {
	current := "--"
	if s.readingValid {
		current = fmt.Sprintf("%.2f°C", s.reading)
	}
	return []string{
		"Current temperature: " + current,
		fmt.Sprintf("Target temperature: %d°C - Heating %s", s.targetC, onOff(s.heater)),
		"Cycle running time: " + FormatHours(s.clock.Elapsed(now)),
		"Remaining time: " + FormatHours(s.clock.Remaining(now)),
	}
}

// Snapshot returns the observable state at now.
func (s *Session) Snapshot(now time.Time) Snapshot {
	return Snapshot{
		State:            s.state,
		TargetC:          s.targetC,
		DurationHours:    s.durationHours,
		Input:            s.buf.String(),
		TemperatureC:     s.reading,
		ReadingValid:     s.readingValid,
		Heater:           s.heater,
		Pump:             s.pump,
		CountdownStarted: s.clock.Started(),
		Elapsed:          s.clock.Elapsed(now),
		Remaining:        s.clock.Remaining(now),
		Total:            s.clock.Total(),
		SensorFailures:   s.failures,
	}
}

func (s *Session) event(now time.Time, typ EventType, level Level, lines ...string) Event {
	return Event{
		Timestamp: now,
		Type:      typ,
		Level:     level,
		Lines:     lines,
		Snapshot:  s.Snapshot(now),
	}
}

// FormatHours renders a duration as fractional hours with five decimals.
func FormatHours(d time.Duration) string {
	return fmt.Sprintf("%.5f h", MillisToHours(d.Milliseconds()))
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
