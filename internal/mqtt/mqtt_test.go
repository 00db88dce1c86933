package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jjroth89/sous-vide/internal/logic"
)

func cookingEvent() SessionEvent {
	return SessionEvent{
		SessionID: "3f1c2a9e-8d4b-4f7a-9c11-2b6e5d0a7f43",
		Event: logic.Event{
			Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
			Type:      logic.EventStatus,
			Level:     logic.LevelInfo,
			Lines:     []string{"Current temperature: 61.25°C"},
			Snapshot: logic.Snapshot{
				State:         logic.StateCooking,
				TargetC:       65,
				DurationHours: 120,
				TemperatureC:  61.25,
				ReadingValid:  true,
				Heater:        true,
				Pump:          true,
				Elapsed:       90 * time.Minute,
				Remaining:     118*time.Hour + 30*time.Minute,
			},
		},
	}
}

func TestTopics(t *testing.T) {
	events, system := Topics("kitchen")
	if events != "sousvide/kitchen/events" {
		t.Errorf("events topic: got %s", events)
	}
	if system != "sousvide/kitchen/system" {
		t.Errorf("system topic: got %s", system)
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(cookingEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	sv := parsed.SousVide
	if sv.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", sv.Timestamp)
	}
	if sv.Event != "STATUS" {
		t.Errorf("unexpected event: %s", sv.Event)
	}
	if sv.State != "COOKING" {
		t.Errorf("unexpected state: %s", sv.State)
	}
	if sv.SessionID != "3f1c2a9e-8d4b-4f7a-9c11-2b6e5d0a7f43" {
		t.Errorf("unexpected session id: %s", sv.SessionID)
	}
	if sv.TargetC != 65 || sv.DurationHours != 120 {
		t.Errorf("settings: got %d°C %dh", sv.TargetC, sv.DurationHours)
	}
	if sv.TemperatureC == nil || *sv.TemperatureC != 61.25 {
		t.Errorf("temperature: got %v", sv.TemperatureC)
	}
	if !sv.Heater || !sv.Pump {
		t.Errorf("relays: heater=%v pump=%v", sv.Heater, sv.Pump)
	}
	if sv.ElapsedMs != 5_400_000 {
		t.Errorf("elapsed_ms: got %d", sv.ElapsedMs)
	}
	if sv.RemainingMs != 426_600_000 {
		t.Errorf("remaining_ms: got %d", sv.RemainingMs)
	}
	if len(sv.Message) != 1 {
		t.Errorf("message lines: got %d", len(sv.Message))
	}
}

func TestFormatPayloadInvalidReadingIsNull(t *testing.T) {
	ev := cookingEvent()
	ev.Event.Type = logic.EventSensorFault
	ev.Event.Level = logic.LevelWarn
	ev.Event.Snapshot.ReadingValid = false

	payload, err := FormatPayload(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	v, ok := raw["sous_vide"]["temperature_c"]
	if !ok {
		t.Fatal("temperature_c missing")
	}
	if v != nil {
		t.Errorf("temperature_c: got %v, want null", v)
	}
	if raw["sous_vide"]["level"] != "warn" {
		t.Errorf("level: got %v", raw["sous_vide"]["level"])
	}
}

func TestFormatPayloadOmitsEmptySession(t *testing.T) {
	ev := cookingEvent()
	ev.SessionID = ""
	payload, err := FormatPayload(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["sous_vide"]["session_id"]; ok {
		t.Error("session_id should be omitted when empty")
	}
}

func TestFormatSystemPayload(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != want {
		t.Errorf("payload:\ngot  %s\nwant %s", payload, want)
	}
}

func TestFormatSystemPayloadOffline(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != `{"system":{"event":"OFFLINE"}}` {
		t.Errorf("unexpected payload: %s", payload)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":"ok"}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	pub := NewFakePublisher()

	first := cookingEvent()
	first.Event.Type = logic.EventCookStarted
	second := cookingEvent()

	if err := pub.Publish(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pub.Publish(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.Events))
	}
	if len(pub.Payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(pub.Payloads))
	}
	types := pub.EventTypes()
	if types[0] != "COOK_STARTED" || types[1] != "STATUS" {
		t.Errorf("unexpected event types: %v", types)
	}

	next := cookingEvent()
	next.SessionID = "7a0d4c52-1e9b-4b3e-8f6a-5c2d9e1b0a77"
	_ = pub.Publish(next)
	ids := pub.SessionIDs()
	if len(ids) != 2 || ids[0] != first.SessionID || ids[1] != next.SessionID {
		t.Errorf("session ids: %v", ids)
	}
}

func TestFakePublisherError(t *testing.T) {
	pub := NewFakePublisher()
	pub.PublishError = errors.New("broker down")

	if err := pub.Publish(cookingEvent()); err == nil {
		t.Error("expected error")
	}
	if len(pub.Events) != 0 {
		t.Error("event should not be recorded on error")
	}
}

func TestFakePublisherSystem(t *testing.T) {
	pub := NewFakePublisher()
	if err := pub.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.SystemEvents) != 1 || !pub.SystemEvents[0].Retained {
		t.Errorf("system events: %+v", pub.SystemEvents)
	}
	if names := pub.SystemEventNames(); len(names) != 1 || names[0] != "STARTUP" {
		t.Errorf("system event names: %v", names)
	}

	pub.PublishSystemError = errors.New("broker down")
	if err := pub.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected error")
	}
}

func TestFakePublisherClose(t *testing.T) {
	pub := NewFakePublisher()
	if pub.Closed {
		t.Error("should not be closed initially")
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pub.Closed {
		t.Error("should be closed after Close()")
	}

	pub.PublishError = errors.New("broker down")
	pub.Reset()
	if pub.Closed || pub.Events != nil || pub.PublishError != nil {
		t.Error("Reset should clear state")
	}
}
