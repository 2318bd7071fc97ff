package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/wheel-speed/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	r := logic.Reading{
		Time:     time.Date(2026, 1, 3, 14, 23, 11, 0, time.UTC),
		RPM:      120,
		SpeedMPS: logic.LinearSpeed(120, 0.33),
		Edges:    11,
		Distance: logic.Distance(11, 0.33),
	}

	payload, err := FormatPayload(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"wheel":{"timestamp":"2026-01-03T14:23:11Z","rpm":120,"speed_mps":4.147,"stopped":false,"revolutions":10,"distance_m":20.735}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadStopped(t *testing.T) {
	r := logic.Reading{
		Time:    time.Date(2026, 1, 3, 14, 23, 11, 0, time.UTC),
		Stopped: true,
	}

	payload, err := FormatPayload(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Wheel.RPM != 0 || !parsed.Wheel.Stopped {
		t.Errorf("expected stopped 0 RPM, got %+v", parsed.Wheel)
	}
	if parsed.Wheel.Revolutions != 0 {
		t.Errorf("expected 0 revolutions, got %d", parsed.Wheel.Revolutions)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	r := logic.Reading{Time: time.Date(2026, 1, 3, 16, 0, 0, 0, loc)}

	payload, _ := FormatPayload(r)
	var parsed Payload
	json.Unmarshal(payload, &parsed)

	if parsed.Wheel.Timestamp != "2026-01-03T14:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Wheel.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "cycling/wheel/sensor/readings" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "cycling/wheel/sensor/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayloadReconnected(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	readings := []logic.Reading{{RPM: 60}, {RPM: 120}, {RPM: 0, Stopped: true}}
	for _, r := range readings {
		if err := f.Publish(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(f.Readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(f.Readings))
	}
	if len(f.Payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(f.Payloads))
	}
	for i, r := range readings {
		if f.Readings[i].RPM != r.RPM {
			t.Errorf("reading %d: expected RPM %d, got %d", i, r.RPM, f.Readings[i].RPM)
		}
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(logic.Reading{RPM: 1}); err == nil {
		t.Error("expected error")
	}
	if len(f.Readings) != 0 {
		t.Error("reading should not be recorded on error")
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "STARTUP",
		Retained:  true,
	}
	if err := f.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Fatalf("expected one retained system event, got %+v", f.SystemEvents)
	}
	if len(f.SystemPayloads) != 1 {
		t.Fatalf("expected 1 system payload, got %d", len(f.SystemPayloads))
	}

	f.PublishSystemError = errors.New("broker down")
	if err := f.PublishSystem(event); err == nil {
		t.Error("expected error")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Reading{RPM: 5})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if f.Readings != nil || f.Payloads != nil || f.SystemEvents != nil || f.SystemPayloads != nil {
		t.Error("expected recorded data cleared")
	}
	if f.Closed || f.Connected {
		t.Error("expected flags cleared")
	}
}
