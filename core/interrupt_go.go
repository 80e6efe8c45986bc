//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// On host builds "interrupt handlers" are goroutines, so a critical section
// is a process-wide mutex. Critical sections must not nest.
var interruptMu sync.Mutex

// disableInterrupts enters the critical section
func disableInterrupts() State {
	interruptMu.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	interruptMu.Unlock()
}
