// Package report delivers wheel-speed readings to their consumers.
package report

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// Reporter receives a reading each time the reported RPM changes.
type Reporter interface {
	// Report delivers one reading.
	// Returns error if delivery fails (should not crash the process).
	Report(r logic.Reading) error
}

// FormatLine returns the text line for a reading, for example
// "RPM = 120\t\t Linear Speed = 4.15 m/s\n".
func FormatLine(r logic.Reading) string {
	return fmt.Sprintf("RPM = %d\t\t Linear Speed = %.2f m/s\n", r.RPM, r.SpeedMPS)
}

// LineReporter writes one text line per reading.
type LineReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineReporter creates a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// Report writes the reading as a text line.
func (l *LineReporter) Report(r logic.Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := io.WriteString(l.w, FormatLine(r)); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Close closes the underlying writer if it is an io.Closer.
func (l *LineReporter) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Multi fans a reading out to several reporters. Every reporter is called
// even if an earlier one fails; the errors are joined.
type Multi []Reporter

// Report delivers r to every reporter in order.
func (m Multi) Report(r logic.Reading) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Report(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to the Reporter interface.
type Func func(r logic.Reading) error

// Report calls f(r).
func (f Func) Report(r logic.Reading) error {
	return f(r)
}
