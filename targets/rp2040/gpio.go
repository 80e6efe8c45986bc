//go:build rp2040 || rp2350

package main

import (
	"machine"

	"synkino/core"
)

// RPGPIODriver implements the GPIO and interrupt drivers for RP2040
type RPGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

var (
	_ core.GPIODriver      = (*RPGPIODriver)(nil)
	_ core.InterruptDriver = (*RPGPIODriver)(nil)
)

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) {
	if _, exists := d.configuredPins[pin]; exists {
		return
	}
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: mode})
	d.configuredPins[pin] = machinePin
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	d.configure(pin, machine.PinOutput)
	return nil
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	d.configure(pin, machine.PinInputPullup)
	return nil
}

func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	d.configure(pin, machine.PinInputPulldown)
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		d.configure(pin, machine.PinOutput)
		machinePin = d.configuredPins[pin]
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads the current pin state. Unconfigured pins read low.
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return false, nil
	}
	return machinePin.Get(), nil
}

func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	value, _ := d.GetPin(pin)
	return value
}

// SetInterrupt attaches handler to the pin's edge interrupt. The handler
// runs in interrupt context.
func (d *RPGPIODriver) SetInterrupt(pin core.GPIOPin, edge core.PinEdge, handler func(core.GPIOPin)) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		d.configure(pin, machine.PinInputPulldown)
		machinePin = d.configuredPins[pin]
	}
	change := machine.PinToggle
	switch edge {
	case core.PinRising:
		change = machine.PinRising
	case core.PinFalling:
		change = machine.PinFalling
	}
	return machinePin.SetInterrupt(change, func(machine.Pin) { handler(pin) })
}

// ClearInterrupt detaches the handler.
func (d *RPGPIODriver) ClearInterrupt(pin core.GPIOPin) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return nil
	}
	return machinePin.SetInterrupt(0, nil)
}
