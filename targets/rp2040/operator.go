//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers/encoders"

	"synkino/core"
)

// Panel wiring
const (
	encoderA   = machine.GPIO20
	encoderB   = machine.GPIO21
	buttonPin  = machine.GPIO22
	debounceUS = 20000
)

// panel is the rotary encoder with push button. The encoder is read as an
// integer; the button is sampled on every poll and reports one press per
// release-to-press transition held longer than the debounce time.
type panel struct {
	enc *encoders.QuadratureDevice

	wasDown  bool
	downAt   uint32
	reported bool
	pending  bool

	prompting bool
	promptAt  int
}

var _ core.Operator = (*panel)(nil)

func newPanel() *panel {
	enc := encoders.NewQuadratureViaInterrupt(encoderA, encoderB)
	if err := enc.Configure(encoders.QuadratureConfig{Precision: 4}); err != nil {
		core.Println("panel: encoder: " + err.Error())
	}
	buttonPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return &panel{enc: enc}
}

// poll samples the button. Active low.
func (p *panel) poll() {
	down := !buttonPin.Get()
	now := core.GetTime()
	switch {
	case down && !p.wasDown:
		p.downAt = now
		p.reported = false
	case down && !p.reported && now-p.downAt >= debounceUS:
		p.reported = true
		p.pending = true
	}
	p.wasDown = down
}

// heldFor returns how long the button has been down, zero when released.
func (p *panel) heldFor() uint32 {
	if !p.wasDown {
		return 0
	}
	return core.GetTime() - p.downAt
}

// held reports whether the button is down right now.
func (p *panel) held() bool {
	return !buttonPin.Get()
}

func (p *panel) take() bool {
	p.poll()
	if p.pending {
		p.pending = false
		return true
	}
	return false
}

// ConfirmManualStart answers on a press: with the encoder turned left of
// where it stood when the prompt opened, the start is declined.
func (p *panel) ConfirmManualStart() (confirmed, answered bool) {
	if !p.prompting {
		p.prompting = true
		p.promptAt = p.enc.Position()
		p.pending = false
	}
	if !p.take() {
		return false, false
	}
	p.prompting = false
	return p.enc.Position() >= p.promptAt, true
}

func (p *panel) ButtonPressed() bool { return p.take() }
func (p *panel) Value() int          { return p.enc.Position() }
func (p *panel) SetValue(v int)      { p.enc.SetPosition(v) }
