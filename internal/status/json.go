package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	State         string     `json:"state"`
	SessionID     string     `json:"session_id,omitempty"`
	Cook          CookJSON   `json:"cook"`
	Display       []string   `json:"display"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// CookJSON describes the current cook session.
type CookJSON struct {
	TargetC          int      `json:"target_c"`
	DurationHours    int      `json:"duration_h"`
	Input            string   `json:"input"`
	TemperatureC     *float64 `json:"temperature_c"`
	Heater           bool     `json:"heater"`
	Pump             bool     `json:"pump"`
	CountdownStarted bool     `json:"countdown_started"`
	ElapsedMs        int64    `json:"elapsed_ms"`
	RemainingMs      int64    `json:"remaining_ms"`
	TotalMs          int64    `json:"total_ms"`
	SensorFailures   int      `json:"sensor_failures"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Sessions     int `json:"sessions"`
	Cooks        int `json:"cooks"`
	Completed    int `json:"completed"`
	Cancelled    int `json:"cancelled"`
	SensorFaults int `json:"sensor_faults"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Countdown   string `json:"countdown"`
	Pump        bool   `json:"pump"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	DryRun      bool   `json:"dry_run"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Session.State)
	if state == "" {
		state = "UNKNOWN"
	}
	display := snap.Display
	if display == nil {
		display = []string{}
	}

	cook := CookJSON{
		TargetC:          snap.Session.TargetC,
		DurationHours:    snap.Session.DurationHours,
		Input:            snap.Session.Input,
		Heater:           snap.Session.Heater,
		Pump:             snap.Session.Pump,
		CountdownStarted: snap.Session.CountdownStarted,
		ElapsedMs:        snap.Session.Elapsed.Milliseconds(),
		RemainingMs:      snap.Session.Remaining.Milliseconds(),
		TotalMs:          snap.Session.Total.Milliseconds(),
		SensorFailures:   snap.Session.SensorFailures,
	}
	if snap.Session.ReadingValid {
		c := snap.Session.TemperatureC
		cook.TemperatureC = &c
	}

	return StatusInner{
		State:         state,
		SessionID:     snap.SessionID,
		Cook:          cook,
		Display:       display,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Sessions:     snap.Counts.Sessions,
			Cooks:        snap.Counts.Cooks,
			Completed:    snap.Counts.Completed,
			Cancelled:    snap.Counts.Cancelled,
			SensorFaults: snap.Counts.SensorFaults,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Countdown:   snap.Config.Countdown,
			Pump:        snap.Config.Pump,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			DryRun:      snap.Config.DryRun,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
