// Package sim runs a complete sync session on the host against a
// simulated projector, decoder and operator in virtual time.
package sim

import (
	"sync"

	"synkino/core"
)

// GPIO is an in-memory pin bank with edge interrupts.
type GPIO struct {
	mu       sync.Mutex
	levels   map[core.GPIOPin]bool
	handlers map[core.GPIOPin]irq
}

type irq struct {
	edge    core.PinEdge
	handler func(core.GPIOPin)
}

// NewGPIO returns a pin bank with every pin low.
func NewGPIO() *GPIO {
	return &GPIO{
		levels:   make(map[core.GPIOPin]bool),
		handlers: make(map[core.GPIOPin]irq),
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error        { return nil }
func (g *GPIO) ConfigureInputPullUp(pin core.GPIOPin) error   { return nil }
func (g *GPIO) ConfigureInputPullDown(pin core.GPIOPin) error { return nil }

// SetPin sets an output level. Outputs never raise interrupts.
func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	g.levels[pin] = value
	g.mu.Unlock()
	return nil
}

func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	return g.ReadPin(pin), nil
}

func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

func (g *GPIO) SetInterrupt(pin core.GPIOPin, edge core.PinEdge, handler func(core.GPIOPin)) error {
	g.mu.Lock()
	g.handlers[pin] = irq{edge: edge, handler: handler}
	g.mu.Unlock()
	return nil
}

func (g *GPIO) ClearInterrupt(pin core.GPIOPin) error {
	g.mu.Lock()
	delete(g.handlers, pin)
	g.mu.Unlock()
	return nil
}

// Armed returns the number of pins with an attached handler.
func (g *GPIO) Armed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handlers)
}

// Drive sets an input level from outside and runs the matching handler.
// The handler runs without the bank lock held.
func (g *GPIO) Drive(pin core.GPIOPin, level bool) {
	g.mu.Lock()
	prev := g.levels[pin]
	g.levels[pin] = level
	h, ok := g.handlers[pin]
	g.mu.Unlock()

	if !ok || prev == level {
		return
	}
	if (level && h.edge&core.PinRising != 0) || (!level && h.edge&core.PinFalling != 0) {
		h.handler(pin)
	}
}

// Pulse drives a short high pulse.
func (g *GPIO) Pulse(pin core.GPIOPin) {
	g.Drive(pin, true)
	g.Drive(pin, false)
}
