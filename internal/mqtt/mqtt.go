// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// Topic is the MQTT topic for wheel readings.
const Topic = "cycling/wheel/sensor/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "cycling/wheel/sensor/system"

// Publisher publishes readings to MQTT.
type Publisher interface {
	// Publish sends a wheel reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(r logic.Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "MQTT_DISCONNECT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Wheel WheelPayload `json:"wheel"`
}

// WheelPayload contains the reading details.
type WheelPayload struct {
	Timestamp   string  `json:"timestamp"`
	RPM         uint32  `json:"rpm"`
	SpeedMPS    float64 `json:"speed_mps"`
	Stopped     bool    `json:"stopped"`
	Revolutions uint64  `json:"revolutions"`
	DistanceM   float64 `json:"distance_m"`
}

// FormatPayload creates the JSON payload for a reading.
// Speed and distance are rounded to millimeters.
func FormatPayload(r logic.Reading) ([]byte, error) {
	var revs uint64
	if r.Edges > 0 {
		revs = r.Edges - 1
	}
	payload := Payload{
		Wheel: WheelPayload{
			Timestamp:   r.Time.UTC().Format(time.RFC3339),
			RPM:         r.RPM,
			SpeedMPS:    round3(r.SpeedMPS),
			Stopped:     r.Stopped,
			Revolutions: revs,
			DistanceM:   round3(r.Distance),
		},
	}
	return json.Marshal(payload)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
