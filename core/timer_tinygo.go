//go:build tinygo

package core

import "sync/atomic"

var timeSource TimeSource

// SetTimeSource installs the hardware timer. Call it before any interrupt
// handler that reads the time is attached.
func SetTimeSource(src TimeSource) {
	timeSource = src
}

// getSystemTicks returns the current system ticks
func getSystemTicks() uint32 {
	if timeSource != nil {
		return timeSource()
	}
	return atomic.LoadUint32(&systemTicks)
}

// setSystemTicks sets the system ticks
func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}
