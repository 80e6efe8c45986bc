package sim

import "time"

// Edit is a scripted sync-offset change.
type Edit struct {
	At     time.Duration `yaml:"at"`
	Frames int           `yaml:"frames"`
}

// Operator plays back a scripted user: it answers the manual-start prompt
// and performs sync-offset edits as press, turn, press.
type Operator struct {
	now         func() time.Duration
	confirm     bool
	answerAfter time.Duration
	edits       []Edit
	editing     bool
	value       int
}

// NewOperator creates an operator reading virtual time from now.
func NewOperator(now func() time.Duration, confirm bool, answerAfter time.Duration, edits []Edit) *Operator {
	return &Operator{
		now:         now,
		confirm:     confirm,
		answerAfter: answerAfter,
		edits:       append([]Edit(nil), edits...),
	}
}

func (o *Operator) ConfirmManualStart() (confirmed, answered bool) {
	if o.now() < o.answerAfter {
		return false, false
	}
	return o.confirm, true
}

func (o *Operator) ButtonPressed() bool {
	if len(o.edits) == 0 {
		return false
	}
	if o.editing {
		o.value = o.edits[0].Frames
		o.edits = o.edits[1:]
		o.editing = false
		return true
	}
	if o.now() >= o.edits[0].At {
		o.editing = true
		return true
	}
	return false
}

func (o *Operator) Value() int {
	if o.editing {
		return o.edits[0].Frames
	}
	return o.value
}

func (o *Operator) SetValue(v int) {
	o.value = v
}
