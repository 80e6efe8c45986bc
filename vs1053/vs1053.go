// Package vs1053 drives a VLSI VS1053b audio decoder over SPI. The SCI
// (control) and SDI (data) channels share one bus and are selected by
// separate chip-select lines; DREQ signals room for 32 more data bytes.
package vs1053

import (
	"errors"
	"sync"
	"time"

	"synkino/core"

	"tinygo.org/x/drivers"
)

// SCI registers
const (
	RegMode       = 0x00
	RegStatus     = 0x01
	RegBass       = 0x02
	RegClockF     = 0x03
	RegDecodeTime = 0x04
	RegAudata     = 0x05
	RegWRAM       = 0x06
	RegWRAMAddr   = 0x07
	RegHDAT0      = 0x08
	RegHDAT1      = 0x09
	RegAIAddr     = 0x0A
	RegVolume     = 0x0B
)

// SCI_MODE bits
const (
	ModeDiff    = 0x0001
	ModeLayer12 = 0x0002
	ModeReset   = 0x0004
	ModeCancel  = 0x0008
	ModeTests   = 0x0020
	ModeSDINew  = 0x0800
	ModeLine1   = 0x4000
)

const (
	opWrite = 0x02
	opRead  = 0x03

	// DataChunk is the number of bytes the decoder accepts per DREQ.
	DataChunk = 32

	// chipVersion is the STATUS version field of a VS1053.
	chipVersion = 4

	// clockF sets a 3.5x multiplier with 1.0x allowed addition.
	clockF = 0x6000
)

var (
	ErrNotFound = errors.New("vs1053: chip not found")
	ErrTimeout  = errors.New("vs1053: DREQ timeout")
)

// Pins are the GPIO lines of the breakout.
type Pins struct {
	CS    core.GPIOPin // SCI chip select, active low
	DCS   core.GPIOPin // SDI chip select, active low
	DREQ  core.GPIOPin
	Reset core.GPIOPin
}

// Device is the register-level interface to the chip.
type Device struct {
	bus  drivers.SPI
	gpio core.GPIODriver
	pins Pins

	mu  sync.Mutex // one SCI or SDI transaction at a time
	buf [4]byte
	rx  [4]byte

	// sleep is replaced in tests
	sleep func(time.Duration)
}

// New returns a device on bus. Call Configure before use.
func New(bus drivers.SPI, gpio core.GPIODriver, pins Pins) *Device {
	return &Device{bus: bus, gpio: gpio, pins: pins, sleep: time.Sleep}
}

// Configure sets up the pins, hard-resets the chip and checks its version.
func (d *Device) Configure() error {
	g := d.gpio
	if err := g.ConfigureOutput(d.pins.CS); err != nil {
		return err
	}
	if err := g.ConfigureOutput(d.pins.DCS); err != nil {
		return err
	}
	if err := g.ConfigureOutput(d.pins.Reset); err != nil {
		return err
	}
	if err := g.ConfigureInputPullDown(d.pins.DREQ); err != nil {
		return err
	}
	g.SetPin(d.pins.CS, true)
	g.SetPin(d.pins.DCS, true)

	if err := d.Reset(); err != nil {
		return err
	}
	status, err := d.ReadRegister(RegStatus)
	if err != nil {
		return err
	}
	if (status>>4)&0x0F != chipVersion {
		return ErrNotFound
	}
	return nil
}

// Version returns the STATUS version field.
func (d *Device) Version() (uint8, error) {
	status, err := d.ReadRegister(RegStatus)
	return uint8(status>>4) & 0x0F, err
}

// Reset pulses the reset line and then performs a soft reset.
func (d *Device) Reset() error {
	d.gpio.SetPin(d.pins.Reset, false)
	d.sleep(100 * time.Millisecond)
	d.gpio.SetPin(d.pins.Reset, true)
	d.gpio.SetPin(d.pins.CS, true)
	d.gpio.SetPin(d.pins.DCS, true)
	d.sleep(100 * time.Millisecond)

	if err := d.SoftReset(); err != nil {
		return err
	}
	d.sleep(100 * time.Millisecond)

	if err := d.WriteRegister(RegClockF, clockF); err != nil {
		return err
	}
	return d.SetVolume(40, 40)
}

// SoftReset resets the decoder firmware without touching the pins.
func (d *Device) SoftReset() error {
	if err := d.WriteRegister(RegMode, ModeSDINew|ModeReset); err != nil {
		return err
	}
	d.sleep(100 * time.Millisecond)
	return nil
}

// ReadyForData reports the DREQ line.
func (d *Device) ReadyForData() bool {
	return d.gpio.ReadPin(d.pins.DREQ)
}

// WaitReady polls DREQ until it is high or timeout passes.
func (d *Device) WaitReady(timeout time.Duration) error {
	deadline := core.GetTime() + core.TimerFromUS(uint32(timeout/time.Microsecond))
	for !d.ReadyForData() {
		if int32(core.GetTime()-deadline) >= 0 {
			return ErrTimeout
		}
		d.sleep(time.Millisecond)
	}
	return nil
}

// ReadRegister performs one SCI read.
func (d *Device) ReadRegister(addr uint8) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sciRead(addr)
}

// WriteRegister performs one SCI write.
func (d *Device) WriteRegister(addr uint8, value uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sciWrite(addr, value)
}

func (d *Device) sciRead(addr uint8) (uint16, error) {
	d.buf = [4]byte{opRead, addr, 0xFF, 0xFF}
	d.gpio.SetPin(d.pins.CS, false)
	err := d.bus.Tx(d.buf[:], d.rx[:])
	d.gpio.SetPin(d.pins.CS, true)
	if err != nil {
		return 0, err
	}
	return uint16(d.rx[2])<<8 | uint16(d.rx[3]), nil
}

func (d *Device) sciWrite(addr uint8, value uint16) error {
	d.buf = [4]byte{opWrite, addr, byte(value >> 8), byte(value)}
	d.gpio.SetPin(d.pins.CS, false)
	err := d.bus.Tx(d.buf[:], nil)
	d.gpio.SetPin(d.pins.CS, true)
	return err
}

// WriteData sends stream bytes over SDI. The caller checks DREQ; at most
// DataChunk bytes go out per call.
func (d *Device) WriteData(data []byte) error {
	if len(data) > DataChunk {
		data = data[:DataChunk]
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gpio.SetPin(d.pins.DCS, false)
	err := d.bus.Tx(data, nil)
	d.gpio.SetPin(d.pins.DCS, true)
	return err
}

// SetVolume sets attenuation in 0.5 dB steps per channel, 254 is silent.
func (d *Device) SetVolume(left, right uint8) error {
	return d.WriteRegister(RegVolume, uint16(left)<<8|uint16(right))
}
