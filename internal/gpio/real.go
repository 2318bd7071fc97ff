//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealSource reads rising edges from actual hardware using the Linux GPIO
// character device. The kernel timestamps each edge with CLOCK_MONOTONIC,
// the same clock MonotonicClock reads.
type RealSource struct {
	chip string
	pin  int

	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewRealSource creates an edge source for the given chip and line offset.
// Nothing is requested from the kernel until Start.
func NewRealSource(chip string, pin int) *RealSource {
	return &RealSource{chip: chip, pin: pin}
}

// Start requests the line as an input with pull-down and rising edge
// detection. Edges are delivered to handler from the gpiocdev event
// goroutine, one at a time and in arrival order.
func (r *RealSource) Start(handler EdgeHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line != nil {
		return errors.New("gpio: already started")
	}

	line, err := gpiocdev.RequestLine(r.chip, r.pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type != gpiocdev.LineEventRisingEdge {
				return
			}
			handler(toMicros(evt.Timestamp))
		}))
	if err != nil {
		return fmt.Errorf("request pin %d on %s: %w", r.pin, r.chip, err)
	}
	r.line = line
	return nil
}

// Value returns the current raw level of the sensor line.
func (r *RealSource) Value() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return 0, errors.New("gpio: not started")
	}
	v, err := r.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read pin %d: %w", r.pin, err)
	}
	return v, nil
}

// Close releases GPIO resources.
// Reconfigures the pin to input with pull-down and no edge detection
// (matching Pi boot defaults) before closing.
func (r *RealSource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return nil
	}

	var errs []error
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown, gpiocdev.WithoutEdges); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", r.pin, err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", r.pin, err))
	}
	r.line = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
