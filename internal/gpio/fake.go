package gpio

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// FakeSource is a test double that delivers scripted edges.
type FakeSource struct {
	mu      sync.Mutex
	handler EdgeHandler

	// Started tracks if Start was called successfully
	Started bool

	// Closed tracks if Close was called
	Closed bool

	// StartError, if set, will be returned by Start()
	StartError error
}

// NewFakeSource creates an unstarted FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

// Start records the handler that Edge delivers to.
func (f *FakeSource) Start(handler EdgeHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.StartError != nil {
		return f.StartError
	}
	if f.Started {
		return errors.New("gpio: already started")
	}
	f.handler = handler
	f.Started = true
	return nil
}

// Edge delivers one rising edge at ts. Edges before Start or after Close
// are dropped, as a real line would not report them.
func (f *FakeSource) Edge(ts logic.Micros) {
	f.mu.Lock()
	h := f.handler
	if f.Closed {
		h = nil
	}
	f.mu.Unlock()

	if h != nil {
		h(ts)
	}
}

// Edges delivers n edges, the first at start and each following one period later.
// Returns the timestamp of the last edge.
func (f *FakeSource) Edges(start, period logic.Micros, n int) logic.Micros {
	ts := start
	for i := 0; i < n; i++ {
		if i > 0 {
			ts += period
		}
		f.Edge(ts)
	}
	return ts
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset returns the source to its unstarted state.
func (f *FakeSource) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = nil
	f.Started = false
	f.Closed = false
	f.StartError = nil
}

// FakeClock is a Clock whose value is set by the test.
// Safe for concurrent use.
type FakeClock struct {
	now atomic.Uint32
}

// NewFakeClock creates a FakeClock reading start.
func NewFakeClock(start logic.Micros) *FakeClock {
	c := &FakeClock{}
	c.Set(start)
	return c
}

// Micros returns the current fake counter value.
func (c *FakeClock) Micros() logic.Micros {
	return logic.Micros(c.now.Load())
}

// Set sets the counter.
func (c *FakeClock) Set(m logic.Micros) {
	c.now.Store(uint32(m))
}

// Advance moves the counter forward by d, wrapping like the real counter.
func (c *FakeClock) Advance(d logic.Micros) {
	c.now.Add(uint32(d))
}
