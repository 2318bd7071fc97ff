package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/wheel-speed/internal/status"
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
	"kmh": func(mps float64) string {
		return fmt.Sprintf("%.1f", mps*3.6)
	},
	"fixed2": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"km": func(m float64) string {
		return fmt.Sprintf("%.3f", m/1000)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
<title>Wheel Speed</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.moving { color: green; font-weight: bold; }
.stopped { color: #888; }
.waiting { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Wheel Speed</h1>
<h2>Wheel</h2>
<table>
<tr><th>RPM</th><td id="rpm" class="{{if not .Ready}}waiting{{else if .Stats.Stopped}}stopped{{else}}moving{{end}}">{{.Stats.RPM}}</td></tr>
<tr><th>Speed</th><td id="speed">{{fixed2 .Stats.SpeedMPS}} m/s ({{kmh .Stats.SpeedMPS}} km/h)</td></tr>
<tr><th>State</th><td>{{if not .Ready}}waiting for edges{{else if .Stats.Stopped}}stopped{{else}}moving{{end}}</td></tr>
<tr><th>Distance</th><td>{{km .Stats.Distance}} km</td></tr>
<tr><th>Edges</th><td>{{.Stats.Edges}}</td></tr>
<tr><th>Last report</th><td>{{if .LastReading}}{{.LastReading.Time.UTC.Format "2006-01-02T15:04:05Z"}}{{else}}none{{end}}</td></tr>
</table>
<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>
<h2>Sampling</h2>
<table>
<tr><th>Ticks</th><td>{{.Stats.Ticks}}</td></tr>
<tr><th>Reports</th><td>{{.Stats.Reports}}</td></tr>
</table>
<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sensor</th><td>{{.Config.Chip}} line {{.Config.Pin}}</td></tr>
<tr><th>Wheel radius</th><td>{{.Config.WheelRadiusM}} m</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Stop timeout</th><td>{{.Config.StopTimeoutUs}}us</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
{{if .Config.SerialPort}}<tr><th>Serial</th><td>{{.Config.SerialPort}}</td></tr>{{end}}
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>
<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() and Ready() methods but the template needs fields.
	refresh := snap.Config.IntervalMs / 1000
	if refresh < 1 {
		refresh = 1
	}
	data := struct {
		status.Snapshot
		Uptime         time.Duration
		Ready          bool
		RefreshSeconds int64
	}{
		Snapshot:       snap,
		Uptime:         snap.Uptime(),
		Ready:          snap.Ready(),
		RefreshSeconds: refresh,
	}
	indexTmpl.Execute(w, data)
}
