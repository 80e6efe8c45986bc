//go:build rp2040 || rp2350

package main

import (
	"machine"
)

// InitUSB initializes USB serial communication
// TinyGo automatically sets up USB CDC-ACM on RP2040
func InitUSB() {
	// On RP2040, machine.Serial is USB CDC, not UART
	machine.Serial.Configure(machine.UARTConfig{})
}

// usbWriter carries telemetry frames to the host. Writes fail fast while
// no host is listening so playback never waits on USB.
type usbWriter struct {
	failures uint32
}

// Write sends data over USB CDC, handling partial writes
func (w *usbWriter) Write(data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := machine.Serial.Write(data[written:])
		if err != nil || n == 0 {
			w.failures++
			return written, errUSBWrite
		}
		written += n
	}
	return written, nil
}
