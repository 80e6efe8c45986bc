package core

// LeaderDetector reports whether film leader is in front of the start-mark
// sensor and mirrors the sensor onto the status LED while armed.
type LeaderDetector struct {
	gpio  GPIODriver
	irq   InterruptDriver
	pin   GPIOPin
	led   GPIOPin
	armed bool
}

// NewLeaderDetector watches pin and mirrors it onto led while armed. Nil
// drivers select the registered ones.
func NewLeaderDetector(gpio GPIODriver, irq InterruptDriver, pin, led GPIOPin) *LeaderDetector {
	gpio, irq = orRegistered(gpio, irq)
	return &LeaderDetector{gpio: gpio, irq: irq, pin: pin, led: led}
}

// Active returns the instantaneous sensor level. No debounce.
func (d *LeaderDetector) Active() bool {
	return d.gpio.ReadPin(d.pin)
}

// Arm mirrors the current level onto the LED and keeps doing so on every
// edge until Release.
func (d *LeaderDetector) Arm() error {
	d.mirror()
	if d.armed {
		return nil
	}
	if err := d.irq.SetInterrupt(d.pin, PinToggle, func(GPIOPin) { d.mirror() }); err != nil {
		return err
	}
	d.armed = true
	return nil
}

// Release detaches the edge interrupt and turns the LED off.
func (d *LeaderDetector) Release() error {
	if !d.armed {
		return nil
	}
	d.armed = false
	err := d.irq.ClearInterrupt(d.pin)
	d.gpio.SetPin(d.led, false)
	return err
}

// Armed reports whether the interrupt is attached.
func (d *LeaderDetector) Armed() bool {
	return d.armed
}

func (d *LeaderDetector) mirror() {
	d.gpio.SetPin(d.led, d.gpio.ReadPin(d.pin))
}
