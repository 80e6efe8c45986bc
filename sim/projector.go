package sim

import (
	"time"

	"synkino/core"
)

// Segment is one stretch of projector motion.
type Segment struct {
	Run  time.Duration `yaml:"run,omitempty"`
	Stop time.Duration `yaml:"stop,omitempty"`
}

// Projector emits shutter impulses and drives the start-mark sensor.
type Projector struct {
	gpio      *GPIO
	pin       core.GPIOPin
	leaderPin core.GPIOPin

	period     float64 // µs between impulses while running
	segments   []Segment
	leaderEnd  uint32 // µs, 0 when no leader
	leaderDone bool

	next   float64 // µs of the next impulse
	pulses uint32
}

// NewProjector creates a projector running at fps with blades impulses per
// frame, off nominal by speedPPM.
func NewProjector(gpio *GPIO, pin, leaderPin core.GPIOPin, fps, blades uint8, speedPPM float64, segments []Segment) *Projector {
	rate := float64(fps) * float64(blades) * (1 + speedPPM*1e-6)
	return &Projector{
		gpio:      gpio,
		pin:       pin,
		leaderPin: leaderPin,
		period:    1e6 / rate,
		segments:  segments,
		next:      1e6 / rate,
	}
}

// SetLeader puts leader in front of the sensor until the start mark passes
// at clearsAt.
func (p *Projector) SetLeader(clearsAt time.Duration) {
	p.leaderEnd = uint32(clearsAt / time.Microsecond)
	p.gpio.Drive(p.leaderPin, true)
}

// Pulses returns the number of impulses emitted.
func (p *Projector) Pulses() uint32 {
	return p.pulses
}

// running reports whether the script has the projector moving at t µs.
// Without segments it never stops; after the last segment it has stopped.
func (p *Projector) running(t float64) bool {
	if len(p.segments) == 0 {
		return true
	}
	var at time.Duration
	for _, s := range p.segments {
		at += s.Run
		if t < float64(at/time.Microsecond) {
			return true
		}
		at += s.Stop
		if t < float64(at/time.Microsecond) {
			return false
		}
	}
	return false
}

// Advance emits every impulse due up to now. Each edge is delivered with
// the clock set to its exact time.
func (p *Projector) Advance(now uint32) {
	if !p.leaderDone && p.leaderEnd != 0 && now >= p.leaderEnd {
		p.leaderDone = true
		p.gpio.Drive(p.leaderPin, false)
	}
	for p.next <= float64(now) {
		at := p.next
		p.next += p.period
		if !p.running(at) {
			continue
		}
		core.SetTime(uint32(at))
		p.gpio.Pulse(p.pin)
		p.pulses++
	}
	core.SetTime(now)
}
