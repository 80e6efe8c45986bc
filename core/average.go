package core

// AverageWindow is the length of the delta moving average.
const AverageWindow = 6

// MovingAverage is a fixed-window integer mean over the last AverageWindow
// samples. Empty slots count as zero until the window has filled.
type MovingAverage struct {
	samples [AverageWindow]int32
	idx     int
	total   int64
}

// Add inserts a sample and returns the new mean (truncated toward zero).
func (m *MovingAverage) Add(v int32) int32 {
	m.total -= int64(m.samples[m.idx])
	m.samples[m.idx] = v
	m.total += int64(v)
	m.idx = (m.idx + 1) % AverageWindow
	return int32(m.total / AverageWindow)
}

// Reset clears the window.
func (m *MovingAverage) Reset() {
	*m = MovingAverage{}
}
