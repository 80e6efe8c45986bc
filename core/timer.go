package core

// TimerFreq is the system tick rate. One tick is one microsecond on every
// target so that frame periods and the impulse refractory window can be
// expressed directly.
const (
	TimerFreq = 1000000
)

// TimeSource reads a free-running microsecond counter. With one installed,
// GetTime follows it directly instead of the value last pushed by SetTime.
type TimeSource func() uint32

var systemTicks uint32

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerFromMS converts milliseconds to timer ticks
func TimerFromMS(ms uint32) uint32 {
	return TimerFromUS(ms * 1000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}
