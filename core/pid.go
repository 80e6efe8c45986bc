package core

// PIDMode selects whether Compute updates the output.
type PIDMode uint8

const (
	PIDManual PIDMode = iota
	PIDAutomatic
)

// DefaultSampleTimeUS is the control-loop period: 10 Hz.
const DefaultSampleTimeUS = 100000

// PID drives the measured sample delta towards zero. Both the proportional
// and the derivative term act on the measurement rather than on the error,
// so a setpoint step never kicks the output. The integral sum carries the
// proportional contribution and is clamped to the output limits.
type PID struct {
	Kp, Ki, Kd float64 // user tunings, per second

	kp, ki, kd float64 // tunings scaled to the sample time
	sampleTime float64 // seconds
	outMin     float64
	outMax     float64
	setpoint   float64

	mode      PIDMode
	outputSum float64
	lastInput float64
	output    float64
}

// NewPID creates a controller in manual mode with a 100 ms sample time.
func NewPID(kp, ki, kd float64) *PID {
	p := &PID{
		sampleTime: float64(DefaultSampleTimeUS) / 1e6,
		outMin:     -187000,
		outMax:     511999,
	}
	p.SetTunings(kp, ki, kd)
	return p
}

// SetTunings sets the gains. Negative values are ignored.
func (p *PID) SetTunings(kp, ki, kd float64) {
	if kp < 0 || ki < 0 || kd < 0 {
		return
	}
	p.Kp, p.Ki, p.Kd = kp, ki, kd
	p.kp = kp
	p.ki = ki * p.sampleTime
	p.kd = kd / p.sampleTime
}

// SetOutputLimits clamps both the output and the running sum.
func (p *PID) SetOutputLimits(min, max float64) {
	if min >= max {
		return
	}
	p.outMin, p.outMax = min, max
	if p.mode == PIDAutomatic {
		p.output = p.clamp(p.output)
		p.outputSum = p.clamp(p.outputSum)
	}
}

// OutputLimits returns the configured clamp.
func (p *PID) OutputLimits() (min, max float64) {
	return p.outMin, p.outMax
}

// SetMode switches between manual and automatic. Entering automatic from
// manual re-initializes the running sum from the current output so the
// transfer is bumpless.
func (p *PID) SetMode(mode PIDMode) {
	if mode == PIDAutomatic && p.mode == PIDManual {
		p.outputSum = p.clamp(p.output)
	}
	p.mode = mode
}

// Initialize reseeds the controller around input before automatic steps
// resume: the running sum takes the held output and the next Compute sees
// no change in the measurement.
func (p *PID) Initialize(input float64) {
	p.outputSum = p.clamp(p.output)
	p.lastInput = input
}

// Mode returns the current mode.
func (p *PID) Mode() PIDMode {
	return p.mode
}

// Compute runs one step for input and returns the new output. In manual
// mode it returns the held output and false.
func (p *PID) Compute(input float64) (float64, bool) {
	if p.mode != PIDAutomatic {
		return p.output, false
	}
	err := p.setpoint - input
	dInput := input - p.lastInput

	p.outputSum += p.ki*err - p.kp*dInput
	p.outputSum = p.clamp(p.outputSum)

	p.output = p.clamp(p.outputSum - p.kd*dInput)
	p.lastInput = input
	return p.output, true
}

// Output returns the last computed output.
func (p *PID) Output() float64 {
	return p.output
}

// Saturated reports whether the last output sits on a limit.
func (p *PID) Saturated() bool {
	return p.output <= p.outMin || p.output >= p.outMax
}

// Reset clears the controller state and drops to manual mode.
func (p *PID) Reset() {
	p.outputSum = 0
	p.lastInput = 0
	p.output = 0
	p.mode = PIDManual
}

func (p *PID) clamp(v float64) float64 {
	if v > p.outMax {
		return p.outMax
	}
	if v < p.outMin {
		return p.outMin
	}
	return v
}
