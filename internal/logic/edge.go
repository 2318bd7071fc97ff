package logic

import (
	"runtime"
	"sync/atomic"
)

// TimingState is the edge timing shared between the edge handler and the
// sampling loop. It has a single writer (EdgeTimer) and any number of
// readers. Writes are bracketed by a sequence counter: the counter is odd
// while a write is in progress, and a reader retries until it sees the same
// even value before and after copying the fields.
type TimingState struct {
	seq      atomic.Uint32
	lastEdge atomic.Uint32
	period   atomic.Uint32
	edges    atomic.Uint64
}

// store publishes a new edge. Only EdgeTimer calls it.
func (s *TimingState) store(edge, period Micros, edges uint64) {
	s.seq.Add(1)
	s.lastEdge.Store(uint32(edge))
	s.period.Store(uint32(period))
	s.edges.Store(edges)
	s.seq.Add(1)
}

// Snapshot returns the last edge timestamp, the last period and the edge
// count as they were after a single edge. It never blocks the writer.
func (s *TimingState) Snapshot() TimingSnapshot {
	for {
		before := s.seq.Load()
		if before&1 != 0 {
			runtime.Gosched()
			continue
		}
		snap := TimingSnapshot{
			LastEdge: Micros(s.lastEdge.Load()),
			Period:   Micros(s.period.Load()),
			Edges:    s.edges.Load(),
		}
		if s.seq.Load() == before {
			return snap
		}
	}
}

// EdgeTimer records each sensor edge into a TimingState.
// OnEdge must be called from a single goroutine, in edge arrival order.
type EdgeTimer struct {
	state *TimingState
	prev  Micros
	edges uint64
}

// NewEdgeTimer creates an EdgeTimer writing to state.
func NewEdgeTimer(state *TimingState) *EdgeTimer {
	return &EdgeTimer{state: state}
}

// OnEdge records an edge observed at now. It does not block, allocate or
// perform I/O, so it is safe to register directly as an edge event handler.
// The first edge only establishes a timestamp; the period is measured from
// the second edge on.
func (t *EdgeTimer) OnEdge(now Micros) {
	t.edges++
	var period Micros
	if t.edges > 1 {
		period = Elapsed(now, t.prev)
	}
	t.state.store(now, period, t.edges)
	t.prev = now
}

// Edges returns the number of edges this timer has recorded.
// Only safe from the goroutine calling OnEdge.
func (t *EdgeTimer) Edges() uint64 {
	return t.edges
}
