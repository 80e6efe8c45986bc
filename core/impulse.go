package core

// DefaultRefractoryUS is the minimum spacing between two counted shutter
// impulses. A 4-blade shutter at 25 fps produces one impulse every 10 ms.
const DefaultRefractoryUS = 2000

// ImpulseCounter counts debounced rising edges from the shutter sensor.
// OnEdge is the only writer; Count and Reset may be called from the main
// loop at any time.
type ImpulseCounter struct {
	gpio       GPIODriver
	irq        InterruptDriver
	pin        GPIOPin
	led        GPIOPin
	refractory uint32

	count        uint32
	lastAccepted uint32
	seen         bool
	ledOn        bool
	armed        bool
}

// NewImpulseCounter creates a counter for the impulse input pin. Accepted
// edges toggle led. Nil drivers select the registered ones.
func NewImpulseCounter(gpio GPIODriver, irq InterruptDriver, pin, led GPIOPin) *ImpulseCounter {
	gpio, irq = orRegistered(gpio, irq)
	return &ImpulseCounter{
		gpio:       gpio,
		irq:        irq,
		pin:        pin,
		led:        led,
		refractory: TimerFromUS(DefaultRefractoryUS),
	}
}

// SetRefractory overrides the debounce window in microseconds.
func (c *ImpulseCounter) SetRefractory(us uint32) {
	c.refractory = TimerFromUS(us)
}

// OnEdge handles one rising edge. Edges closer than the refractory window
// to the previous accepted edge are dropped.
func (c *ImpulseCounter) OnEdge() {
	now := GetTime()

	state := disableInterrupts()
	if c.seen && now-c.lastAccepted < c.refractory {
		restoreInterrupts(state)
		return
	}
	c.count++
	c.lastAccepted = now
	c.seen = true
	c.ledOn = !c.ledOn
	led := c.ledOn
	restoreInterrupts(state)

	c.gpio.SetPin(c.led, led)
}

// Count returns the number of accepted edges since the last Reset.
func (c *ImpulseCounter) Count() uint32 {
	state := disableInterrupts()
	n := c.count
	restoreInterrupts(state)
	return n
}

// Reset zeroes the count. The refractory window keeps running so an edge
// immediately after a reset is still debounced against the previous one.
func (c *ImpulseCounter) Reset() {
	state := disableInterrupts()
	c.count = 0
	restoreInterrupts(state)
}

// Arm attaches the rising-edge interrupt.
func (c *ImpulseCounter) Arm() error {
	if c.armed {
		return nil
	}
	if err := c.irq.SetInterrupt(c.pin, PinRising, func(GPIOPin) { c.OnEdge() }); err != nil {
		return err
	}
	c.armed = true
	return nil
}

// Release detaches the interrupt and turns the LED off.
func (c *ImpulseCounter) Release() error {
	if !c.armed {
		return nil
	}
	c.armed = false
	err := c.irq.ClearInterrupt(c.pin)

	state := disableInterrupts()
	c.ledOn = false
	restoreInterrupts(state)
	c.gpio.SetPin(c.led, false)
	return err
}

// Armed reports whether the interrupt is attached.
func (c *ImpulseCounter) Armed() bool {
	return c.armed
}
