// Package logic contains the pure wheel-speed measurement logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable: wall-clock time as time.Time, edge time as Micros.
package logic

import "time"

// Micros is a reading of a free-running 32-bit microsecond counter.
// The counter wraps roughly every 71.6 minutes; differences between two
// readings must always be taken with Elapsed.
type Micros uint32

// Elapsed returns now - then using wrapping subtraction, which stays correct
// across a counter wraparound as long as the real interval is shorter than
// one full counter period.
func Elapsed(now, then Micros) Micros {
	return now - then
}

// MicrosFromDuration converts a duration to a Micros span.
// Durations longer than one counter period wrap.
func MicrosFromDuration(d time.Duration) Micros {
	return Micros(uint64(d / time.Microsecond))
}

// Duration converts a Micros span back to a time.Duration.
func (m Micros) Duration() time.Duration {
	return time.Duration(m) * time.Microsecond
}

// TimingSnapshot is a consistent copy of the shared edge timing state.
type TimingSnapshot struct {
	// LastEdge is the timestamp of the most recent edge.
	LastEdge Micros
	// Period is the time between the two most recent edges.
	// Only meaningful when Edges >= 2.
	Period Micros
	// Edges is the number of edges observed since startup.
	Edges uint64
}

// HasPeriod reports whether at least two edges have been seen, so that
// Period holds a real measurement.
func (s TimingSnapshot) HasPeriod() bool {
	return s.Edges >= 2
}

// Reading is a rate sample handed to reporters when the RPM changes.
type Reading struct {
	Time     time.Time
	RPM      uint32
	SpeedMPS float64 // linear speed in meters per second
	Stopped  bool    // no usable edge within the stop timeout
	Edges    uint64  // edges observed so far (one per revolution)
	Distance float64 // meters travelled since startup
}

// SamplerStats counts sampler activity since startup.
type SamplerStats struct {
	Ticks    int
	Reports  int
	RPM      uint32 // most recently computed RPM
	SpeedMPS float64
	Stopped  bool
	Edges    uint64
	Distance float64
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Stats     SamplerStats
}
