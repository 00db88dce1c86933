package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jjroth89/sous-vide/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func cooking() logic.Snapshot {
	return logic.Snapshot{
		State:            logic.StateCooking,
		TargetC:          65,
		DurationHours:    120,
		TemperatureC:     64.5,
		ReadingValid:     true,
		Heater:           true,
		Pump:             true,
		CountdownStarted: true,
		Elapsed:          time.Hour,
		Remaining:        119 * time.Hour,
		Total:            120 * time.Hour,
	}
}

func TestNewTracker(t *testing.T) {
	cfg := Config{PollMs: 100, TickMs: 5000, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 100 {
		t.Errorf("Config.PollMs: got %d, want 100", snap.Config.PollMs)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.Session.State != logic.StateIdle {
		t.Errorf("expected IDLE initially, got %s", snap.Session.State)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(cooking(), "abc", Counts{Sessions: 2, Cooks: 1})

	snap := tr.Snapshot()
	if snap.Session.State != logic.StateCooking {
		t.Errorf("State: got %q, want COOKING", snap.Session.State)
	}
	if snap.SessionID != "abc" {
		t.Errorf("SessionID: got %q", snap.SessionID)
	}
	if snap.Counts.Sessions != 2 || snap.Counts.Cooks != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestCountsRecord(t *testing.T) {
	var c Counts
	for _, typ := range []logic.EventType{
		logic.EventSessionStarted,
		logic.EventTargetSet,
		logic.EventCookStarted,
		logic.EventSensorFault,
		logic.EventSensorFault,
		logic.EventCancelled,
		logic.EventSessionStarted,
		logic.EventCookStarted,
		logic.EventCompleted,
	} {
		c.Record(typ)
	}
	want := Counts{Sessions: 2, Cooks: 2, Completed: 1, Cancelled: 1, SensorFaults: 2}
	if c != want {
		t.Errorf("Counts: got %+v, want %+v", c, want)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetDisplayCopies(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	lines := []string{"Starting the water pump."}
	tr.SetDisplay(lines)
	lines[0] = "changed"

	if got := tr.Snapshot().Display[0]; got != "Starting the water pump." {
		t.Errorf("Display aliased caller slice: %q", got)
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(start, Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(cooking(), "a", Counts{Cooks: 1})

	snap1 := tr.Snapshot()

	tr.Update(logic.Snapshot{State: logic.StateCompleted}, "a", Counts{Cooks: 1, Completed: 1})

	if snap1.Session.State != logic.StateCooking {
		t.Error("snapshot should be a copy; State was modified")
	}
	if snap1.Counts.Completed != 0 {
		t.Error("snapshot should be a copy; Counts was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Session:       cooking(),
		SessionID:     "abc",
		Display:       []string{"Current temperature: 64.50°C"},
		Counts:        Counts{Sessions: 1, Cooks: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 100, TickMs: 5000, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":80"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.State != "COOKING" {
		t.Errorf("State: got %q, want COOKING", s.State)
	}
	if s.Cook.TargetC != 65 || s.Cook.DurationHours != 120 {
		t.Errorf("Cook: got %+v", s.Cook)
	}
	if s.Cook.TemperatureC == nil || *s.Cook.TemperatureC != 64.5 {
		t.Errorf("TemperatureC: got %v", s.Cook.TemperatureC)
	}
	if s.Cook.RemainingMs != 428_400_000 {
		t.Errorf("RemainingMs: got %d", s.Cook.RemainingMs)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.Cooks != 1 {
		t.Errorf("Counts.Cooks: got %d, want 1", s.Counts.Cooks)
	}
	if len(s.Display) != 1 {
		t.Errorf("Display: got %v", s.Display)
	}
	// Event and Reason should be omitted
	if s.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", s.Event)
	}
	if s.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", s.Reason)
	}
}

func TestFormatJSONEmptySnapshot(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(time.Second),
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if raw["status"]["state"] != "UNKNOWN" {
		t.Errorf("state: got %v, want UNKNOWN", raw["status"]["state"])
	}
	if d, ok := raw["status"]["display"].([]interface{}); !ok || len(d) != 0 {
		t.Errorf("display should be an empty array, got %v", raw["status"]["display"])
	}
	cook := raw["status"]["cook"].(map[string]interface{})
	if cook["temperature_c"] != nil {
		t.Errorf("temperature_c: got %v, want null", cook["temperature_c"])
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		Session:       cooking(),
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.State != "COOKING" {
		t.Errorf("State: got %q, want COOKING", parsed.Status.State)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{
		Session:   logic.Snapshot{State: logic.StateIdle},
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(time.Second),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(cooking(), "id", Counts{Sessions: i})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetDisplay([]string{"line"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
