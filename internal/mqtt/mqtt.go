// Package mqtt publishes cook-session and system events to an MQTT broker,
// with a fake for tests.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/jjroth89/sous-vide/internal/logic"
)

// Topics returns the event and system topics for a device name.
func Topics(device string) (events, system string) {
	return "sousvide/" + device + "/events", "sousvide/" + device + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a cook-session event.
	// Returns error if publishing fails (should not crash the process).
	Publish(event SessionEvent) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SessionEvent is a state machine event tagged with the session it belongs to.
type SessionEvent struct {
	SessionID string
	Event     logic.Event
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for session events.
type Payload struct {
	SousVide SessionPayload `json:"sous_vide"`
}

// SessionPayload contains the session event details.
type SessionPayload struct {
	Timestamp     string   `json:"timestamp"`
	Event         string   `json:"event"`
	Level         string   `json:"level"`
	SessionID     string   `json:"session_id,omitempty"`
	State         string   `json:"state"`
	Message       []string `json:"message"`
	TargetC       int      `json:"target_c"`
	DurationHours int      `json:"duration_h"`
	TemperatureC  *float64 `json:"temperature_c"` // null when the last read failed
	Heater        bool     `json:"heater"`
	Pump          bool     `json:"pump"`
	ElapsedMs     int64    `json:"elapsed_ms"`
	RemainingMs   int64    `json:"remaining_ms"`
}

// FormatPayload creates the JSON payload for a session event.
func FormatPayload(ev SessionEvent) ([]byte, error) {
	snap := ev.Event.Snapshot
	p := SessionPayload{
		Timestamp:     ev.Event.Timestamp.UTC().Format(time.RFC3339),
		Event:         string(ev.Event.Type),
		Level:         string(ev.Event.Level),
		SessionID:     ev.SessionID,
		State:         string(snap.State),
		Message:       ev.Event.Lines,
		TargetC:       snap.TargetC,
		DurationHours: snap.DurationHours,
		Heater:        snap.Heater,
		Pump:          snap.Pump,
		ElapsedMs:     snap.Elapsed.Milliseconds(),
		RemainingMs:   snap.Remaining.Milliseconds(),
	}
	if snap.ReadingValid {
		c := snap.TemperatureC
		p.TemperatureC = &c
	}
	return json.Marshal(Payload{SousVide: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (OFFLINE will) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}
