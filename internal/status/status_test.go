package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/wheel-speed/internal/logic"
)

var testConfig = Config{
	Chip:          "gpiochip0",
	Pin:           17,
	WheelRadiusM:  0.33,
	IntervalMs:    1000,
	StopTimeoutUs: 2000000,
	PollMs:        10,
	HeartbeatMs:   900000,
	Broker:        "tcp://localhost:1883",
	HTTPAddr:      ":80",
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Pin != 17 {
		t.Errorf("Config.Pin: got %d, want 17", snap.Config.Pin)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.Ready() {
		t.Error("expected Ready=false initially")
	}
	if snap.LastReading != nil {
		t.Error("expected no reading initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(logic.SamplerStats{Ticks: 12, Reports: 3, RPM: 120, SpeedMPS: 4.147, Edges: 25})

	snap := tr.Snapshot()
	if snap.Stats.RPM != 120 {
		t.Errorf("RPM: got %d, want 120", snap.Stats.RPM)
	}
	if snap.Stats.Ticks != 12 || snap.Stats.Reports != 3 {
		t.Errorf("counts: got ticks=%d reports=%d, want 12/3", snap.Stats.Ticks, snap.Stats.Reports)
	}
	if !snap.Ready() {
		t.Error("expected Ready=true after two edges")
	}
}

func TestSetReading(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)

	tr.SetReading(logic.Reading{Time: at, RPM: 60})

	snap := tr.Snapshot()
	if snap.LastReading == nil {
		t.Fatal("expected LastReading")
	}
	if snap.LastReading.RPM != 60 || !snap.LastReading.Time.Equal(at) {
		t.Errorf("LastReading: got %+v", *snap.LastReading)
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

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.SamplerStats{RPM: 90})
	tr.SetReading(logic.Reading{RPM: 90})

	snap1 := tr.Snapshot()

	tr.Update(logic.SamplerStats{RPM: 0, Stopped: true})
	tr.SetReading(logic.Reading{RPM: 0})

	if snap1.Stats.RPM != 90 {
		t.Error("snapshot should be a copy; RPM was modified")
	}
	if snap1.LastReading.RPM != 90 {
		t.Error("snapshot should be a copy; LastReading was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Stats: logic.SamplerStats{
			Ticks:    900,
			Reports:  7,
			RPM:      120,
			SpeedMPS: logic.LinearSpeed(120, 0.33),
			Edges:    101,
			Distance: logic.Distance(101, 0.33),
		},
		LastReading:   &logic.Reading{Time: start.Add(14 * time.Minute), RPM: 120},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        testConfig,
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.RPM != 120 {
		t.Errorf("RPM: got %d, want 120", parsed.Status.RPM)
	}
	if parsed.Status.SpeedMPS != 4.147 {
		t.Errorf("SpeedMPS: got %v, want 4.147", parsed.Status.SpeedMPS)
	}
	if parsed.Status.Revolutions != 100 {
		t.Errorf("Revolutions: got %d, want 100", parsed.Status.Revolutions)
	}
	if parsed.Status.DistanceM != 207.345 {
		t.Errorf("DistanceM: got %v, want 207.345", parsed.Status.DistanceM)
	}
	if !parsed.Status.Ready {
		t.Error("expected Ready=true")
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if parsed.Status.LastReport != "2026-01-01T00:14:00Z" {
		t.Errorf("LastReport: got %q", parsed.Status.LastReport)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.Ticks != 900 || parsed.Status.Counts.Reports != 7 {
		t.Errorf("Counts: got %+v", parsed.Status.Counts)
	}
	if parsed.Status.Config.StopTimeoutUs != 2000000 {
		t.Errorf("Config.StopTimeoutUs: got %d", parsed.Status.Config.StopTimeoutUs)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONBeforeFirstEdge(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})

	if status["rpm"] != float64(0) {
		t.Errorf("rpm: got %v, want 0", status["rpm"])
	}
	if status["ready"] != false {
		t.Errorf("ready: got %v, want false", status["ready"])
	}
	if _, exists := status["last_report"]; exists {
		t.Error("last_report should be omitted before any report")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Stats:     logic.SamplerStats{RPM: 60, Edges: 3},
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
		Config:    testConfig,
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.RPM != 60 {
		t.Errorf("RPM: got %d, want 60", parsed.Status.RPM)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
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
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
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
			tr.Update(logic.SamplerStats{Ticks: i, RPM: uint32(i)})
			tr.SetReading(logic.Reading{RPM: uint32(i)})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
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
