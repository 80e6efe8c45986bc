//go:build !tinygo

package core

import "sync/atomic"

var timeSource atomic.Pointer[TimeSource]

// SetTimeSource installs a live clock. Nil means the clock only moves
// through SetTime (simulation and tests).
func SetTimeSource(src TimeSource) {
	if src == nil {
		timeSource.Store(nil)
		return
	}
	timeSource.Store(&src)
}

// getSystemTicks returns the current system ticks (regular Go implementation)
func getSystemTicks() uint32 {
	if src := timeSource.Load(); src != nil {
		return (*src)()
	}
	return atomic.LoadUint32(&systemTicks)
}

// setSystemTicks sets the system ticks (regular Go implementation)
func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}
