package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	RPM           uint32       `json:"rpm"`
	SpeedMPS      float64      `json:"speed_mps"`
	Stopped       bool         `json:"stopped"`
	Revolutions   uint64       `json:"revolutions"`
	DistanceM     float64      `json:"distance_m"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	LastReport    string       `json:"last_report,omitempty"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of sampler counters.
type CountsJSON struct {
	Ticks   int `json:"ticks"`
	Reports int `json:"reports"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip          string  `json:"chip"`
	Pin           int     `json:"pin"`
	WheelRadiusM  float64 `json:"wheel_radius_m"`
	IntervalMs    int64   `json:"interval_ms"`
	StopTimeoutUs int64   `json:"stop_timeout_us"`
	PollMs        int64   `json:"poll_ms"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	Broker        string  `json:"broker"`
	SerialPort    string  `json:"serial_port,omitempty"`
	HTTPAddr      string  `json:"http_addr"`
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func buildInner(snap Snapshot) StatusInner {
	var revs uint64
	if snap.Stats.Edges > 0 {
		revs = snap.Stats.Edges - 1
	}
	inner := StatusInner{
		RPM:           snap.Stats.RPM,
		SpeedMPS:      round3(snap.Stats.SpeedMPS),
		Stopped:       snap.Stats.Stopped,
		Revolutions:   revs,
		DistanceM:     round3(snap.Stats.Distance),
		Ready:         snap.Ready(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Ticks:   snap.Stats.Ticks,
			Reports: snap.Stats.Reports,
		},
		Config: ConfigJSON{
			Chip:          snap.Config.Chip,
			Pin:           snap.Config.Pin,
			WheelRadiusM:  snap.Config.WheelRadiusM,
			IntervalMs:    snap.Config.IntervalMs,
			StopTimeoutUs: snap.Config.StopTimeoutUs,
			PollMs:        snap.Config.PollMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Broker:        snap.Config.Broker,
			SerialPort:    snap.Config.SerialPort,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
	if snap.LastReading != nil {
		inner.LastReport = snap.LastReading.Time.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
