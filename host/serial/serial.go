// Package serial opens the telemetry link to a Synkino board.
package serial

import (
	"io"
	"time"
)

// Port is an open serial link. Read returns 0, nil when the read timeout
// expires, and io.EOF only once the stream has really ended. Tests
// substitute an in-memory pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered input and output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	Device string // "/dev/ttyACM0", "COM3"
	Baud   int    // USB CDC ignores it

	// ReadTimeout bounds each Read so a cancelled reader notices promptly.
	// Zero blocks.
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings used for the board's USB CDC port.
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
