package logic

import "math"

// MicrosPerMinute is the number of microseconds in one minute.
const MicrosPerMinute = 60_000_000

// ComputeRPM converts a timing snapshot into revolutions per minute.
//
// The wheel counts as stopped, and RPM is 0, when fewer than two edges have
// been seen, when the last edge is more than stopTimeout before now, or when
// the measured period is zero. Otherwise RPM is 60e6/Period rounded to the
// nearest integer.
func ComputeRPM(snap TimingSnapshot, now, stopTimeout Micros) (rpm uint32, stopped bool) {
	if !snap.HasPeriod() {
		return 0, true
	}
	// An edge stamped up to stopTimeout after now is treated as fresh: it
	// raced the clock read rather than being a full counter wrap ago.
	if Elapsed(now, snap.LastEdge) > stopTimeout && Elapsed(snap.LastEdge, now) > stopTimeout {
		return 0, true
	}
	if snap.Period == 0 {
		return 0, true
	}
	p := uint64(snap.Period)
	return uint32((MicrosPerMinute + p/2) / p), false
}

// Circumference returns the wheel circumference in meters.
func Circumference(radius float64) float64 {
	return 2 * math.Pi * radius
}

// LinearSpeed returns the linear speed in meters per second of a wheel of
// the given radius (meters) turning at rpm.
func LinearSpeed(rpm uint32, radius float64) float64 {
	return float64(rpm) * Circumference(radius) / 60
}

// Distance returns the meters covered by the given number of edges.
// One edge is one revolution; the first edge marks the start, so it adds
// no distance.
func Distance(edges uint64, radius float64) float64 {
	if edges < 2 {
		return 0
	}
	return float64(edges-1) * Circumference(radius)
}
