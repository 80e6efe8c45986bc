package core

import (
	"errors"
	"sync"
)

// mockGPIO is a pin map with edge-triggered handlers.
type mockGPIO struct {
	mu       sync.Mutex
	pins     map[GPIOPin]bool
	handlers map[GPIOPin]func(GPIOPin)
	edges    map[GPIOPin]PinEdge
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		pins:     make(map[GPIOPin]bool),
		handlers: make(map[GPIOPin]func(GPIOPin)),
		edges:    make(map[GPIOPin]PinEdge),
	}
}

func (m *mockGPIO) ConfigureOutput(pin GPIOPin) error        { return nil }
func (m *mockGPIO) ConfigureInputPullUp(pin GPIOPin) error   { return nil }
func (m *mockGPIO) ConfigureInputPullDown(pin GPIOPin) error { return nil }

func (m *mockGPIO) SetPin(pin GPIOPin, value bool) error {
	m.mu.Lock()
	m.pins[pin] = value
	m.mu.Unlock()
	return nil
}

func (m *mockGPIO) GetPin(pin GPIOPin) (bool, error) {
	return m.ReadPin(pin), nil
}

func (m *mockGPIO) ReadPin(pin GPIOPin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pins[pin]
}

func (m *mockGPIO) SetInterrupt(pin GPIOPin, edge PinEdge, handler func(GPIOPin)) error {
	m.mu.Lock()
	m.handlers[pin] = handler
	m.edges[pin] = edge
	m.mu.Unlock()
	return nil
}

func (m *mockGPIO) ClearInterrupt(pin GPIOPin) error {
	m.mu.Lock()
	delete(m.handlers, pin)
	delete(m.edges, pin)
	m.mu.Unlock()
	return nil
}

func (m *mockGPIO) armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

// drive sets an input level and fires the handler for a matching edge.
func (m *mockGPIO) drive(pin GPIOPin, level bool) {
	m.mu.Lock()
	prev := m.pins[pin]
	m.pins[pin] = level
	h := m.handlers[pin]
	edge := m.edges[pin]
	m.mu.Unlock()

	if h == nil || prev == level {
		return
	}
	if (level && edge&PinRising != 0) || (!level && edge&PinFalling != 0) {
		h(pin)
	}
}

func (m *mockGPIO) pulse(pin GPIOPin) {
	m.drive(pin, true)
	m.drive(pin, false)
}

// mockDecoder records calls and plays back at exactly the nominal rate.
type mockDecoder struct {
	rate        uint16
	placeholder int // SampleRate calls that still report 8000
	counter     uint32
	connected   bool
	stopped     bool
	paused      bool
	started     string
	resampler   bool
	trims       []int32
	volumes     [][2]uint8
	restored    []uint32
	readErr     error
	ctlErr      error // returned by Pause, Stop and ClearErrorCounter
	stops       int
	frac        float64
}

// advance plays ms milliseconds at the nominal rate when running.
func (d *mockDecoder) advance(ms float64) {
	if d.started == "" || d.paused || d.stopped {
		return
	}
	d.frac += float64(d.rate) * ms / 1000
	whole := uint32(d.frac)
	d.counter += whole
	d.frac -= float64(whole)
}

func newMockDecoder(rate uint16) *mockDecoder {
	return &mockDecoder{rate: rate, connected: true}
}

func (d *mockDecoder) ReadSampleCount() (uint32, error) {
	if d.readErr != nil {
		return 0, d.readErr
	}
	return d.counter, nil
}
func (d *mockDecoder) ResetSampleCount() error { d.counter = 0; return nil }
func (d *mockDecoder) RestoreSampleCount(v uint32) error {
	d.counter = v
	d.restored = append(d.restored, v)
	return nil
}
func (d *mockDecoder) SetRateTrim(v int32) error {
	d.trims = append(d.trims, v)
	return nil
}
func (d *mockDecoder) EnableResampler(on bool) error { d.resampler = on; return nil }
func (d *mockDecoder) ClearErrorCounter() error      { return d.ctlErr }

func (d *mockDecoder) Start(path string) error {
	d.started = path
	d.stopped = false
	return nil
}
func (d *mockDecoder) Pause(p bool) error { d.paused = p; return d.ctlErr }
func (d *mockDecoder) Stop() error {
	d.stopped = true
	d.stops++
	return d.ctlErr
}
func (d *mockDecoder) Stopped() bool { return d.stopped }
func (d *mockDecoder) SetVolume(l, r uint8) error {
	d.volumes = append(d.volumes, [2]uint8{l, r})
	return nil
}
func (d *mockDecoder) SampleRate() (uint16, error) {
	if d.placeholder > 0 {
		d.placeholder--
		return PlaceholderSampleRate, nil
	}
	return d.rate, nil
}
func (d *mockDecoder) OutputConnected() bool { return d.connected }

type mockTracks map[int]Track

func (m mockTracks) Resolve(n int) (Track, error) {
	t, ok := m[n]
	if !ok {
		return Track{}, ErrTrackNotFound
	}
	return t, nil
}

// mockOperator answers the manual-start prompt after a number of polls.
type mockOperator struct {
	answerAfter int
	confirm     bool
	polls       int
	presses     int
	value       int
}

func (o *mockOperator) ConfirmManualStart() (bool, bool) {
	o.polls++
	if o.polls <= o.answerAfter {
		return false, false
	}
	return o.confirm, true
}

func (o *mockOperator) ButtonPressed() bool {
	if o.presses > 0 {
		o.presses--
		return true
	}
	return false
}

func (o *mockOperator) Value() int     { return o.value }
func (o *mockOperator) SetValue(v int) { o.value = v }

var errBus = errors.New("bus fault")

const (
	testImpulsePin GPIOPin = 2
	testLeaderPin  GPIOPin = 3
	testLED        GPIOPin = 25
)

// resetCore puts the package globals in a known state.
func resetCore() {
	SetTime(0)
	SetTimeSource(nil)
	defaultScheduler = &Scheduler{}
	ClearTimingRing()
	SetGPIODriver(nil)
	SetInterruptDriver(nil)
	SetDebugWriter(nil)
	debugChan = nil
	debugDropped = 0
}

// captureLog collects every line written through the log sink.
func captureLog() *[]string {
	lines := new([]string)
	SetDebugWriter(func(msg string) { *lines = append(*lines, msg) })
	return lines
}
