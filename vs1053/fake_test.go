package vs1053

import (
	"sync"
	"time"

	"synkino/core"
)

var testPins = Pins{CS: 1, DCS: 2, DREQ: 3, Reset: 4}

// fakeChip emulates the SCI register file, X memory with auto-increment
// and the SDI data port of a VS1053b.
type fakeChip struct {
	mu   sync.Mutex
	pins map[core.GPIOPin]bool

	regs    [16]uint16
	xmem    map[uint16]uint16
	wramPtr uint16
	sdi     []byte
	writes  []sciOp

	// advance is added to the sample counter after every WRAM read of it,
	// emulating a decoder that keeps playing during the access.
	advance uint32
}

type sciOp struct {
	addr  uint8
	value uint16
}

func newFakeChip() *fakeChip {
	c := &fakeChip{
		pins: map[core.GPIOPin]bool{testPins.CS: true, testPins.DCS: true, testPins.DREQ: true},
		xmem: make(map[uint16]uint16),
	}
	c.regs[RegStatus] = chipVersion << 4
	return c
}

func newTestDevice() (*Device, *fakeChip) {
	c := newFakeChip()
	d := New(c, c, testPins)
	d.sleep = func(time.Duration) {}
	return d, c
}

func (c *fakeChip) counter() uint32 {
	return uint32(c.xmem[xmemSampleCount+1])<<16 | uint32(c.xmem[xmemSampleCount])
}

func (c *fakeChip) setCounter(v uint32) {
	c.xmem[xmemSampleCount] = uint16(v)
	c.xmem[xmemSampleCount+1] = uint16(v >> 16)
}

// core.GPIODriver

func (c *fakeChip) ConfigureOutput(pin core.GPIOPin) error        { return nil }
func (c *fakeChip) ConfigureInputPullUp(pin core.GPIOPin) error   { return nil }
func (c *fakeChip) ConfigureInputPullDown(pin core.GPIOPin) error { return nil }

func (c *fakeChip) SetPin(pin core.GPIOPin, value bool) error {
	c.mu.Lock()
	c.pins[pin] = value
	c.mu.Unlock()
	return nil
}

func (c *fakeChip) GetPin(pin core.GPIOPin) (bool, error) {
	return c.ReadPin(pin), nil
}

func (c *fakeChip) ReadPin(pin core.GPIOPin) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pins[pin]
}

// drivers.SPI

func (c *fakeChip) Transfer(b byte) (byte, error) {
	return 0, nil
}

func (c *fakeChip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sciSelected := !c.pins[testPins.CS]
	sdiSelected := !c.pins[testPins.DCS]
	switch {
	case sdiSelected && !sciSelected:
		c.sdi = append(c.sdi, w...)
		return nil
	case !sciSelected:
		return nil
	}

	addr := w[1]
	switch w[0] {
	case opWrite:
		v := uint16(w[2])<<8 | uint16(w[3])
		c.writes = append(c.writes, sciOp{addr, v})
		c.writeReg(addr, v)
	case opRead:
		v := c.readReg(addr)
		r[2] = byte(v >> 8)
		r[3] = byte(v)
	}
	return nil
}

func (c *fakeChip) writeReg(addr uint8, v uint16) {
	switch addr {
	case RegWRAMAddr:
		c.wramPtr = v
	case RegWRAM:
		c.xmem[c.wramPtr] = v
		c.wramPtr++
	default:
		c.regs[addr&0x0F] = v
	}
}

func (c *fakeChip) readReg(addr uint8) uint16 {
	if addr != RegWRAM {
		return c.regs[addr&0x0F]
	}
	ptr := c.wramPtr
	v := c.xmem[ptr]
	c.wramPtr++
	if ptr == xmemSampleCount || ptr == xmemSampleCount+1 {
		c.setCounter(c.counter() + c.advance)
	}
	return v
}
