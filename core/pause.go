package core

// PauseDetector notices when the projector stops and starts again by
// watching the impulse position.
type PauseDetector struct {
	threshold uint32
	lastPos   int64
	lastMove  uint32
}

// NewPauseDetector creates a detector with a threshold in ticks.
func NewPauseDetector(threshold uint32) *PauseDetector {
	return &PauseDetector{threshold: threshold}
}

// SetThreshold changes the stall threshold in ticks.
func (d *PauseDetector) SetThreshold(ticks uint32) {
	d.threshold = ticks
}

// Reset starts tracking from pos at time now.
func (d *PauseDetector) Reset(pos int64, now uint32) {
	d.lastPos = pos
	d.lastMove = now
}

// Stalled reports whether pos has not changed for at least the threshold.
// Any change restarts the stall timer.
func (d *PauseDetector) Stalled(pos int64, now uint32) bool {
	if pos != d.lastPos {
		d.lastPos = pos
		d.lastMove = now
		return false
	}
	return now-d.lastMove >= d.threshold
}

// Moved reports whether pos differs from the last observed position.
func (d *PauseDetector) Moved(pos int64, now uint32) bool {
	if pos != d.lastPos {
		d.lastPos = pos
		d.lastMove = now
		return true
	}
	return false
}
