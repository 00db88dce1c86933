package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/jjroth89/sous-vide/internal/logic"
	"github.com/jjroth89/sous-vide/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hours": logic.FormatHours,
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sous-Vide</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
pre { background: #f4f4f4; padding: 8px; white-space: pre-wrap; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Sous-Vide<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Cook</h2>
<table>
<tr><th>State</th><td id="state">{{.Session.State}}</td></tr>
<tr><th>Temperature</th><td id="temperature">{{if .Session.ReadingValid}}{{printf "%.2f" .Session.TemperatureC}}°C{{else}}--{{end}}</td></tr>
<tr><th>Target</th><td id="target">{{.Session.TargetC}}°C</td></tr>
<tr><th>Duration</th><td id="duration">{{.Session.DurationHours}} h</td></tr>
<tr><th>Heater</th><td id="heater" class="{{if .Session.Heater}}on{{else}}off{{end}}">{{onOff .Session.Heater}}</td></tr>
<tr><th>Pump</th><td id="pump" class="{{if .Session.Pump}}on{{else}}off{{end}}">{{onOff .Session.Pump}}</td></tr>
<tr><th>Running</th><td id="elapsed">{{hours .Session.Elapsed}}</td></tr>
<tr><th>Remaining</th><td id="remaining">{{hours .Session.Remaining}}</td></tr>
<tr><th>Session</th><td id="session">{{.SessionID}}</td></tr>
</table>

<h2>Display</h2>
<pre id="display">{{range .Display}}{{.}}
{{end}}</pre>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Sessions</th><td>{{.Counts.Sessions}}</td></tr>
<tr><th>Cooks</th><td>{{.Counts.Cooks}}</td></tr>
<tr><th>Completed</th><td>{{.Counts.Completed}}</td></tr>
<tr><th>Cancelled</th><td>{{.Counts.Cancelled}}</td></tr>
<tr><th>Sensor faults</th><td>{{.Counts.SensorFaults}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Countdown</th><td>{{.Config.Countdown}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
{{if .Config.DryRun}}<tr><th>Mode</th><td>dry run (simulated bath)</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function set(id, text, cls) {
    var el = document.getElementById(id);
    el.textContent = text;
    if (cls !== undefined) { el.className = cls; }
  }
  function hours(ms) { return (ms / 3600000).toFixed(5) + " h"; }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(proto + "//" + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.type !== "status") { return; }
        var s = msg.data.status, c = s.cook;
        set("state", s.state);
        set("temperature", c.temperature_c === null ? "--" : c.temperature_c.toFixed(2) + "°C");
        set("target", c.target_c + "°C");
        set("duration", c.duration_h + " h");
        set("heater", c.heater ? "ON" : "OFF", c.heater ? "on" : "off");
        set("pump", c.pump ? "ON" : "OFF", c.pump ? "on" : "off");
        set("elapsed", hours(c.elapsed_ms));
        set("remaining", hours(c.remaining_ms));
        set("session", s.session_id || "");
        set("display", s.display.join("\n"));
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
