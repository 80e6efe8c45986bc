package core

// ControlSample is the result of one control tick.
type ControlSample struct {
	Actual      uint32 // samples since baseline
	Desired     uint32 // samples implied by impulses
	RawDelta    int32
	Delta       int32 // moving average of RawDelta
	Output      int32 // rate trim sent to the decoder
	FrameOffset int32 // Delta in whole frames
	Saturated   bool
}

// SpeedControl converts impulse positions into rate-trim corrections.
type SpeedControl struct {
	regs     Registers
	pid      *PID
	cal      Calibration
	avg      MovingAverage
	baseline uint32
	last     ControlSample
}

// NewSpeedControl creates a loop steering regs with pid.
func NewSpeedControl(regs Registers, pid *PID) *SpeedControl {
	return &SpeedControl{regs: regs, pid: pid}
}

// Configure installs the calibration and output limits and clears the
// averaging window.
func (c *SpeedControl) Configure(cal Calibration) {
	c.cal = cal
	c.pid.SetOutputLimits(OutputLimits(cal.SampleRate))
	c.avg.Reset()
	c.last = ControlSample{}
}

// Calibration returns the active constants.
func (c *SpeedControl) Calibration() Calibration {
	return c.cal
}

// SetBaseline records the raw decoder counter that corresponds to impulse 0.
func (c *SpeedControl) SetBaseline(raw uint32) {
	c.baseline = raw
}

// Baseline returns the recorded baseline.
func (c *SpeedControl) Baseline() uint32 {
	return c.baseline
}

// Last returns the most recent sample.
func (c *SpeedControl) Last() ControlSample {
	return c.last
}

// Tick runs one control step. On a register error nothing is sent and the
// previous sample stays current.
func (c *SpeedControl) Tick(impulses uint32, offset int32) (ControlSample, error) {
	raw, err := c.regs.ReadSampleCount()
	if err != nil {
		return c.last, err
	}

	s := ControlSample{
		Actual:  raw - c.baseline,
		Desired: c.cal.DesiredSamples(impulses, offset),
	}
	s.RawDelta = int32(s.Actual - s.Desired)
	s.Delta = c.avg.Add(s.RawDelta)

	out, ok := c.pid.Compute(float64(s.Delta))
	s.Output = int32(out)
	s.Saturated = c.pid.Saturated()
	if c.cal.SamplesPerFrame != 0 {
		s.FrameOffset = s.Delta / int32(c.cal.SamplesPerFrame)
	}

	if ok {
		if err := c.regs.SetRateTrim(s.Output); err != nil {
			return c.last, err
		}
	}
	c.last = s
	return s, nil
}
