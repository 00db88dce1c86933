// Package status provides a thread-safe status tracker for the sous-vide daemon.
// It is read by the HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/jjroth89/sous-vide/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	TickMs      int64
	HeartbeatMs int64
	Countdown   string
	Pump        bool
	Broker      string
	HTTPAddr    string
	DryRun      bool
}

// Counts tallies session events since the daemon started.
type Counts struct {
	Sessions     int
	Cooks        int
	Completed    int
	Cancelled    int
	SensorFaults int
}

// Record increments the counter matching typ, if any.
func (c *Counts) Record(typ logic.EventType) {
	switch typ {
	case logic.EventSessionStarted:
		c.Sessions++
	case logic.EventCookStarted:
		c.Cooks++
	case logic.EventCompleted:
		c.Completed++
	case logic.EventCancelled:
		c.Cancelled++
	case logic.EventSensorFault:
		c.SensorFaults++
	}
}

// Snapshot is a point-in-time view of daemon state.
// It is a value copy and stays valid after the lock is released.
type Snapshot struct {
	Session       logic.Snapshot
	SessionID     string
	Display       []string // lines of the most recent operator message
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Session:   logic.Snapshot{State: logic.StateIdle},
		},
	}
}

// Update sets the session state, its id and the event counts.
// Called by the controller after every step.
func (t *Tracker) Update(sess logic.Snapshot, sessionID string, counts Counts) {
	t.mu.Lock()
	t.snap.Session = sess
	t.snap.SessionID = sessionID
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetDisplay records the lines most recently shown to the operator.
func (t *Tracker) SetDisplay(lines []string) {
	cp := append([]string(nil), lines...)
	t.mu.Lock()
	t.snap.Display = cp
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
