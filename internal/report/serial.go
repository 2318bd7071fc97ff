package report

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the reference serial console.
const DefaultBaudRate = 9600

// OpenSerial opens a serial port and returns a LineReporter writing to it.
// Close the reporter to release the port.
func OpenSerial(port string, baudRate int) (*LineReporter, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	conn, err := serial.Open(port, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}

	return NewLineReporter(conn), nil
}
