package logic

import "time"

// Defaults for SamplerConfig.
const (
	DefaultInterval    = 1000 * time.Millisecond
	DefaultStopTimeout = Micros(2_000_000)
	DefaultWheelRadius = 0.33
)

// SamplerConfig configures a Sampler.
type SamplerConfig struct {
	Interval    time.Duration // time between sampling ticks
	StopTimeout Micros        // no edge for longer than this means stopped
	WheelRadius float64       // meters
}

// DefaultSamplerConfig returns the default sampling configuration.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Interval:    DefaultInterval,
		StopTimeout: DefaultStopTimeout,
		WheelRadius: DefaultWheelRadius,
	}
}

// Sampler turns the shared edge timing into RPM readings on a fixed cadence.
// Its only state is the last tick deadline and the last reported RPM.
type Sampler struct {
	cfg           SamplerConfig
	startTime     time.Time
	lastTick      time.Time
	prevRPM       uint32
	stats         SamplerStats
	lastHeartbeat time.Time
}

// NewSampler creates a sampler whose first tick is due one interval after
// start. Zero config fields take their defaults.
func NewSampler(cfg SamplerConfig, start time.Time) *Sampler {
	def := DefaultSamplerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = def.StopTimeout
	}
	if cfg.WheelRadius <= 0 {
		cfg.WheelRadius = def.WheelRadius
	}
	return &Sampler{
		cfg:           cfg,
		startTime:     start,
		lastTick:      start,
		lastHeartbeat: start,
	}
}

// Config returns the effective configuration.
func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// NextTick returns the time at which the next tick is due.
func (s *Sampler) NextTick() time.Time {
	return s.lastTick.Add(s.cfg.Interval)
}

// Poll runs a sampling tick if one is due at now and returns a Reading when
// the computed RPM differs from the last reported one. It returns nil when
// no tick is due or the RPM is unchanged.
//
// Ticks are phase-locked: a due tick advances the deadline by exactly one
// interval, so a late poll does not shift later ticks.
//
// micros is read after the state snapshot is taken, so the snapshot never
// holds an edge newer than the time it is compared against.
func (s *Sampler) Poll(now time.Time, state *TimingState, micros func() Micros) *Reading {
	if now.Sub(s.lastTick) < s.cfg.Interval {
		return nil
	}
	s.lastTick = s.lastTick.Add(s.cfg.Interval)

	snap := state.Snapshot()
	rpm, stopped := ComputeRPM(snap, micros(), s.cfg.StopTimeout)
	speed := LinearSpeed(rpm, s.cfg.WheelRadius)
	dist := Distance(snap.Edges, s.cfg.WheelRadius)

	s.stats.Ticks++
	s.stats.RPM = rpm
	s.stats.SpeedMPS = speed
	s.stats.Stopped = stopped
	s.stats.Edges = snap.Edges
	s.stats.Distance = dist

	if rpm == s.prevRPM {
		return nil
	}
	s.prevRPM = rpm
	s.stats.Reports++

	return &Reading{
		Time:     now,
		RPM:      rpm,
		SpeedMPS: speed,
		Stopped:  stopped,
		Edges:    snap.Edges,
		Distance: dist,
	}
}

// Stats returns a copy of the sampler counters.
func (s *Sampler) Stats() SamplerStats {
	return s.stats
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (s *Sampler) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Stats:     s.stats,
	}
}
