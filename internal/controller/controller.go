// Package controller drives one cook session from hardware inputs to relay
// outputs. Each Step polls one key, runs the heating tick when due, applies
// the relays and then reports events to the display, log, MQTT and status
// tracker.
package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jjroth89/sous-vide/internal/display"
	"github.com/jjroth89/sous-vide/internal/gpio"
	"github.com/jjroth89/sous-vide/internal/keypad"
	"github.com/jjroth89/sous-vide/internal/logger"
	"github.com/jjroth89/sous-vide/internal/logic"
	"github.com/jjroth89/sous-vide/internal/mqtt"
	"github.com/jjroth89/sous-vide/internal/sensor"
	"github.com/jjroth89/sous-vide/internal/status"
)

// Deps are the collaborators of a Controller. Publisher and Tracker may be nil.
type Deps struct {
	Session   logic.Config
	Keys      keypad.Source
	Sensor    sensor.Reader
	Relays    gpio.Relays
	Display   display.Sink
	Publisher mqtt.Publisher
	Tracker   *status.Tracker
	Log       *logger.Logger

	// NewID returns a fresh session id. Defaults to a random UUID.
	NewID func() string
}

// relayState remembers the last level written to a relay. known is false
// until a write succeeds, so a failed write is retried on the next step.
type relayState struct {
	on    bool
	known bool
}

// Controller owns the session state machine and its side effects.
// It is not safe for concurrent use.
type Controller struct {
	session   *logic.Session
	keys      keypad.Source
	sensor    sensor.Reader
	relays    gpio.Relays
	display   display.Sink
	publisher mqtt.Publisher
	tracker   *status.Tracker
	log       *logger.Logger
	newID     func() string

	sessionID string
	counts    status.Counts
	heater    relayState
	pump      relayState

	lastHeartbeat time.Time
}

// New creates a Controller and drives both relays off.
func New(d Deps) (*Controller, error) {
	if d.Keys == nil || d.Sensor == nil || d.Relays == nil || d.Display == nil {
		return nil, errors.New("controller: keys, sensor, relays and display are required")
	}
	sess, err := logic.NewSession(d.Session)
	if err != nil {
		return nil, err
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	newID := d.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	c := &Controller{
		session:   sess,
		keys:      d.Keys,
		sensor:    d.Sensor,
		relays:    d.Relays,
		display:   d.Display,
		publisher: d.Publisher,
		tracker:   d.Tracker,
		log:       log,
		newID:     newID,
	}
	c.applyRelays()
	return c, nil
}

// Step runs one iteration of the control loop at now. The returned error is
// the key source's error, if any; all other failures are logged and retried.
func (c *Controller) Step(now time.Time) error {
	var events []logic.Event

	key, ok, keyErr := c.keys.Poll()
	if keyErr == nil && ok {
		c.log.Debugw("key", "key", string(key), "state", c.session.State())
		events = append(events, c.session.HandleKey(key, now)...)
	}

	if c.session.TickDue(now) {
		reading, err := c.sensor.ReadCelsius()
		events = append(events, c.session.Tick(now, reading, err)...)
	}

	c.applyRelays()
	for _, ev := range events {
		c.report(ev)
	}
	c.updateTracker(now)
	return keyErr
}

// applyRelays writes the session's desired relay states when they differ
// from what was last written.
func (c *Controller) applyRelays() {
	if want := c.session.Heater(); !c.heater.known || c.heater.on != want {
		if err := c.relays.SetHeater(want); err != nil {
			c.heater.known = false
			c.log.Warnw("heater relay write failed", "on", want, "error", err)
		} else {
			c.heater = relayState{on: want, known: true}
			c.log.Debugw("heater relay", "on", want)
		}
	}
	if want := c.session.Pump(); !c.pump.known || c.pump.on != want {
		if err := c.relays.SetPump(want); err != nil {
			c.pump.known = false
			c.log.Warnw("pump relay write failed", "on", want, "error", err)
		} else {
			c.pump = relayState{on: want, known: true}
			c.log.Debugw("pump relay", "on", want)
		}
	}
}

func (c *Controller) report(ev logic.Event) {
	if ev.Type == logic.EventSessionStarted {
		c.sessionID = c.newID()
	}
	c.counts.Record(ev.Type)

	for _, line := range ev.Lines {
		c.display.Emit(line)
	}
	if c.tracker != nil {
		c.tracker.SetDisplay(ev.Lines)
	}

	fields := []interface{}{
		"event", ev.Type,
		"state", ev.Snapshot.State,
		"session_id", c.sessionID,
	}
	switch {
	case ev.Level == logic.LevelWarn:
		c.log.Warnw("session event", fields...)
	case ev.Type == logic.EventStatus:
		c.log.Debugw("session event", fields...)
	default:
		c.log.Infow("session event", fields...)
	}

	if c.publisher != nil {
		if err := c.publisher.Publish(mqtt.SessionEvent{SessionID: c.sessionID, Event: ev}); err != nil {
			c.log.Warnw("publish error", "event", ev.Type, "error", err)
		}
	}
}

func (c *Controller) updateTracker(now time.Time) {
	if c.tracker == nil {
		return
	}
	c.tracker.Update(c.session.Snapshot(now), c.sessionID, c.counts)
	if cs, ok := c.publisher.(mqtt.ConnectionStatus); ok {
		c.tracker.SetMQTTConnected(cs.IsConnected())
	}
}

// CheckHeartbeat reports whether interval has passed since the last
// heartbeat. The first call only starts the interval. A zero interval
// disables heartbeats.
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	if c.lastHeartbeat.IsZero() {
		c.lastHeartbeat = now
		return false
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return false
	}
	c.lastHeartbeat = now
	return true
}

// Shutdown turns both relays off. Called once when the daemon exits.
func (c *Controller) Shutdown() error {
	var errs []error
	if err := c.relays.SetHeater(false); err != nil {
		errs = append(errs, fmt.Errorf("heater off: %w", err))
	} else {
		c.heater = relayState{known: true}
	}
	if err := c.relays.SetPump(false); err != nil {
		errs = append(errs, fmt.Errorf("pump off: %w", err))
	} else {
		c.pump = relayState{known: true}
	}
	return errors.Join(errs...)
}

// State returns the session state.
func (c *Controller) State() logic.State { return c.session.State() }

// SessionID returns the id of the current session, empty before the first reset.
func (c *Controller) SessionID() string { return c.sessionID }

// Counts returns the event counters.
func (c *Controller) Counts() status.Counts { return c.counts }

// Snapshot returns the session snapshot at now.
func (c *Controller) Snapshot(now time.Time) logic.Snapshot { return c.session.Snapshot(now) }
