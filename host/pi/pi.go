//go:build linux

// Package pi runs the engine on a Linux single-board computer, with the
// decoder and sensors on the board's SPI bus and GPIO header.
package pi

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"synkino/core"
)

// GPIO drives header pins through periph. Pins are numbered by BCM GPIO.
type GPIO struct {
	mu       sync.Mutex
	pins     map[core.GPIOPin]gpio.PinIO
	watchers map[core.GPIOPin]*watcher
	wg       sync.WaitGroup
}

var (
	_ core.GPIODriver      = (*GPIO)(nil)
	_ core.InterruptDriver = (*GPIO)(nil)
)

// edgePoll bounds how long a watcher waits before checking for removal.
const edgePoll = 50 * time.Millisecond

// Init loads the periph host drivers.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph init: %w", err)
	}
	return nil
}

// NewGPIO creates a pin driver. Call Init first.
func NewGPIO() *GPIO {
	return &GPIO{
		pins:     make(map[core.GPIOPin]gpio.PinIO),
		watchers: make(map[core.GPIOPin]*watcher),
	}
}

func (g *GPIO) pin(n core.GPIOPin) (gpio.PinIO, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.pins[n]; ok {
		return p, nil
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("gpio %d not found", n)
	}
	g.pins[n] = p
	return p, nil
}

func (g *GPIO) ConfigureOutput(n core.GPIOPin) error {
	p, err := g.pin(n)
	if err != nil {
		return err
	}
	return p.Out(gpio.Low)
}

func (g *GPIO) ConfigureInputPullUp(n core.GPIOPin) error {
	p, err := g.pin(n)
	if err != nil {
		return err
	}
	return p.In(gpio.PullUp, gpio.NoEdge)
}

func (g *GPIO) ConfigureInputPullDown(n core.GPIOPin) error {
	p, err := g.pin(n)
	if err != nil {
		return err
	}
	return p.In(gpio.PullDown, gpio.NoEdge)
}

func (g *GPIO) SetPin(n core.GPIOPin, value bool) error {
	p, err := g.pin(n)
	if err != nil {
		return err
	}
	return p.Out(gpio.Level(value))
}

func (g *GPIO) GetPin(n core.GPIOPin) (bool, error) {
	p, err := g.pin(n)
	if err != nil {
		return false, err
	}
	return bool(p.Read()), nil
}

func (g *GPIO) ReadPin(n core.GPIOPin) bool {
	v, _ := g.GetPin(n)
	return v
}

// SetInterrupt enables edge detection and runs handler from a watcher
// goroutine for every edge.
func (g *GPIO) SetInterrupt(n core.GPIOPin, edge core.PinEdge, handler func(core.GPIOPin)) error {
	p, err := g.pin(n)
	if err != nil {
		return err
	}
	g.ClearInterrupt(n)

	if err := p.In(gpio.PullNoChange, toEdge(edge)); err != nil {
		return err
	}
	w := &watcher{}
	g.mu.Lock()
	g.watchers[n] = w
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		w.run(p.WaitForEdge, func() { handler(n) })
	}()
	return nil
}

// ClearInterrupt stops the watcher and disables edge detection. No handler
// runs for n after it returns.
func (g *GPIO) ClearInterrupt(n core.GPIOPin) error {
	g.mu.Lock()
	w, ok := g.watchers[n]
	delete(g.watchers, n)
	p := g.pins[n]
	g.mu.Unlock()
	if !ok {
		return nil
	}
	w.stop()
	return p.In(gpio.PullNoChange, gpio.NoEdge)
}

// Close stops every watcher.
func (g *GPIO) Close() {
	g.mu.Lock()
	pins := make([]core.GPIOPin, 0, len(g.watchers))
	for n := range g.watchers {
		pins = append(pins, n)
	}
	g.mu.Unlock()
	for _, n := range pins {
		g.ClearInterrupt(n)
	}
	g.wg.Wait()
}

func toEdge(e core.PinEdge) gpio.Edge {
	switch e {
	case core.PinRising:
		return gpio.RisingEdge
	case core.PinFalling:
		return gpio.FallingEdge
	}
	return gpio.BothEdges
}

// SPI adapts a periph connection to the bus interface the decoder driver
// uses. Chip selects are driven as GPIOs by the driver.
type SPI struct {
	port spi.PortCloser
	conn spi.Conn
	one  [1]byte
	in   [1]byte
}

// OpenSPI opens a SPI port by periph name ("" for the first one).
func OpenSPI(name string, hz int64) (*SPI, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}
	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		port.Close()
		return nil, err
	}
	return &SPI{port: port, conn: conn}, nil
}

// Tx transmits w and receives into r. Either may be nil.
func (s *SPI) Tx(w, r []byte) error {
	switch {
	case w == nil && r == nil:
		return nil
	case w == nil:
		w = make([]byte, len(r))
	case r == nil:
		r = make([]byte, len(w))
	}
	return s.conn.Tx(w, r)
}

func (s *SPI) Transfer(b byte) (byte, error) {
	s.one[0] = b
	if err := s.conn.Tx(s.one[:], s.in[:]); err != nil {
		return 0, err
	}
	return s.in[0], nil
}

func (s *SPI) Close() error {
	return s.port.Close()
}

// Clock feeds the engine's tick counter from the monotonic clock.
func Clock() core.TimeSource {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start) / time.Microsecond)
	}
}
