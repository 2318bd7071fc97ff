// Package gpio provides edge-triggered GPIO input with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// EdgeHandler is called once per rising edge with the edge timestamp.
// Handlers run on the event goroutine and must not block.
type EdgeHandler func(ts logic.Micros)

// EdgeSource delivers rising edges from the wheel sensor.
type EdgeSource interface {
	// Start registers handler and begins edge detection.
	Start(handler EdgeHandler) error

	// Close stops edge detection and releases GPIO resources.
	Close() error
}

// Clock reads the microsecond counter that edge timestamps are taken from.
type Clock interface {
	Micros() logic.Micros
}

// Defaults for the sensor line.
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17 // BCM numbering
)

// toMicros truncates a monotonic timestamp to the wrapping 32-bit
// microsecond counter used by the logic package.
func toMicros(ts time.Duration) logic.Micros {
	return logic.MicrosFromDuration(ts)
}
