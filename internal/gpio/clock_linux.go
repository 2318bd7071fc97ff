//go:build linux

package gpio

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// MonotonicClock reads CLOCK_MONOTONIC, the clock the kernel uses for GPIO
// edge event timestamps, so sampler time and edge time share one counter.
type MonotonicClock struct{}

// Micros returns the current counter value.
func (MonotonicClock) Micros() logic.Micros {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return toMicros(time.Duration(ts.Nano()))
}
