package report

import "github.com/sweeney/wheel-speed/internal/logic"

// FakeReporter records readings for test assertions.
type FakeReporter struct {
	// Readings contains all readings that were reported.
	Readings []logic.Reading

	// ReportError, if set, will be returned by Report.
	ReportError error
}

// NewFakeReporter creates a FakeReporter for testing.
func NewFakeReporter() *FakeReporter {
	return &FakeReporter{}
}

// Report records the reading.
func (f *FakeReporter) Report(r logic.Reading) error {
	if f.ReportError != nil {
		return f.ReportError
	}
	f.Readings = append(f.Readings, r)
	return nil
}

// RPMs returns the RPM of each recorded reading, in order.
func (f *FakeReporter) RPMs() []uint32 {
	out := make([]uint32, len(f.Readings))
	for i, r := range f.Readings {
		out[i] = r.RPM
	}
	return out
}

// Reset clears recorded readings.
func (f *FakeReporter) Reset() {
	f.Readings = nil
	f.ReportError = nil
}
