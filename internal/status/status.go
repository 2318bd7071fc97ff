// Package status provides a thread-safe status tracker for the wheel-speed daemon.
// It is read by HTTP handlers and used to build lifecycle event payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Chip          string
	Pin           int
	WheelRadiusM  float64
	IntervalMs    int64
	StopTimeoutUs int64
	PollMs        int64
	HeartbeatMs   int64
	Broker        string
	SerialPort    string
	HTTPAddr      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Stats         logic.SamplerStats
	LastReading   *logic.Reading
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether a period has been measured (two edges seen).
func (s Snapshot) Ready() bool {
	return s.Stats.Edges >= 2
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
		},
	}
}

// Update sets the sampler counters.
// Called from runLoop after every sampling tick.
func (t *Tracker) Update(stats logic.SamplerStats) {
	t.mu.Lock()
	t.snap.Stats = stats
	t.mu.Unlock()
}

// SetReading records the most recently reported reading.
func (t *Tracker) SetReading(r logic.Reading) {
	t.mu.Lock()
	t.snap.LastReading = &r
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastReading != nil {
		r := *s.LastReading
		s.LastReading = &r
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
