//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// RealSource is not available on non-Linux platforms.
type RealSource struct{}

// NewRealSource returns a source whose Start always fails on non-Linux platforms.
func NewRealSource(chip string, pin int) *RealSource {
	return &RealSource{}
}

// Start is not implemented on non-Linux platforms.
func (r *RealSource) Start(handler EdgeHandler) error {
	return errors.New("gpio: not supported on this platform (requires Linux)")
}

// Value is not implemented on non-Linux platforms.
func (r *RealSource) Value() (int, error) {
	return 0, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealSource) Close() error {
	return nil
}

var processStart = time.Now()

// MonotonicClock counts microseconds since process start on non-Linux platforms.
type MonotonicClock struct{}

// Micros returns the current counter value.
func (MonotonicClock) Micros() logic.Micros {
	return toMicros(time.Since(processStart))
}
