package core

import (
	"context"
	"sync"
	"testing"
)

func newTestCounter() (*ImpulseCounter, *mockGPIO) {
	g := newMockGPIO()
	return NewImpulseCounter(g, g, testImpulsePin, testLED), g
}

func TestImpulseCounterRefractoryBoundary(t *testing.T) {
	resetCore()
	c, g := newTestCounter()
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}

	tests := []struct {
		at   uint32
		want uint32
	}{
		{10000, 1}, // first edge always counts
		{11999, 1}, // 1.999 ms after the accepted edge
		{12000, 2}, // exactly 2 ms
		{12500, 2},
		{14001, 3},
	}
	for _, tt := range tests {
		SetTime(tt.at)
		g.pulse(testImpulsePin)
		if got := c.Count(); got != tt.want {
			t.Errorf("edge at %d: count = %d, want %d", tt.at, got, tt.want)
		}
	}

	if !g.ReadPin(testLED) {
		t.Errorf("LED should be on after an odd number of accepted edges")
	}
}

func TestImpulseCounterReset(t *testing.T) {
	resetCore()
	c, g := newTestCounter()
	c.Arm()

	for i := uint32(0); i < 5; i++ {
		SetTime(i * 10000)
		g.pulse(testImpulsePin)
	}
	if c.Count() != 5 {
		t.Fatalf("count = %d, want 5", c.Count())
	}
	c.Reset()
	if c.Count() != 0 {
		t.Errorf("count after Reset = %d, want 0", c.Count())
	}
	SetTime(60000)
	g.pulse(testImpulsePin)
	if c.Count() != 1 {
		t.Errorf("count after Reset and one edge = %d, want 1", c.Count())
	}
}

func TestImpulseCounterConcurrentEdges(t *testing.T) {
	resetCore()
	c, _ := newTestCounter()
	c.SetRefractory(0)

	const workers = 8
	const perWorker = 5000

	var wg sync.WaitGroup
	var reader sync.WaitGroup
	done := make(chan struct{})
	reader.Add(1)
	go func() {
		defer reader.Done()
		// Reads must never go backwards while edges land.
		var last uint32
		for {
			select {
			case <-done:
				return
			default:
			}
			n := c.Count()
			if n < last {
				t.Errorf("count went backwards: %d after %d", n, last)
				return
			}
			last = n
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c.OnEdge()
			}
		}()
	}
	wg.Wait()
	close(done)
	reader.Wait()

	if got := c.Count(); got != workers*perWorker {
		t.Errorf("count = %d, want %d", got, workers*perWorker)
	}
}

func TestImpulseCounterArmRelease(t *testing.T) {
	resetCore()
	c, g := newTestCounter()

	SetTime(5000)
	g.pulse(testImpulsePin)
	if c.Count() != 0 {
		t.Errorf("edges must not count before Arm")
	}

	c.Arm()
	c.Arm()
	if g.armed() != 1 {
		t.Errorf("armed handlers = %d, want 1", g.armed())
	}
	c.Release()
	if g.armed() != 0 {
		t.Errorf("armed handlers after Release = %d, want 0", g.armed())
	}
	if g.ReadPin(testLED) {
		t.Errorf("LED should be off after Release")
	}
	// Second release is a no-op
	if err := c.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

func TestLeaderDetectorMirrorsSensor(t *testing.T) {
	resetCore()
	g := newMockGPIO()
	d := NewLeaderDetector(g, g, testLeaderPin, testLED)

	g.SetPin(testLeaderPin, true)
	if !d.Active() {
		t.Fatalf("Active() = false with sensor high")
	}
	d.Arm()
	if !g.ReadPin(testLED) {
		t.Errorf("LED should mirror the sensor immediately on Arm")
	}
	g.drive(testLeaderPin, false)
	if g.ReadPin(testLED) {
		t.Errorf("LED should follow the falling edge")
	}
	g.drive(testLeaderPin, true)
	if !g.ReadPin(testLED) {
		t.Errorf("LED should follow the rising edge")
	}
	d.Release()
	if g.armed() != 0 {
		t.Errorf("leader interrupt still attached after Release")
	}
}

func TestImpulseCounterUsesRegisteredDrivers(t *testing.T) {
	resetCore()
	defer resetCore()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic with no driver registered")
			}
		}()
		NewImpulseCounter(nil, nil, testImpulsePin, testLED)
	}()

	g := newMockGPIO()
	SetGPIODriver(g)
	SetInterruptDriver(g)
	c := NewImpulseCounter(nil, nil, testImpulsePin, testLED)
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	SetTime(5000)
	g.pulse(testImpulsePin)
	if c.Count() != 1 {
		t.Errorf("count = %d, want 1", c.Count())
	}
}

func TestImpulseTestReportsCount(t *testing.T) {
	resetCore()
	c, g := newTestCounter()

	ctx, cancel := context.WithCancel(context.Background())
	var reports []uint32
	step := uint32(0)
	yield := func() {
		step++
		if step <= 3 {
			SetTime(step * 10000)
			g.pulse(testImpulsePin)
			return
		}
		cancel()
	}

	if err := ImpulseTest(ctx, c, yield, func(n uint32) { reports = append(reports, n) }); err != nil {
		t.Fatalf("ImpulseTest: %v", err)
	}
	if len(reports) != 3 || reports[2] != 3 {
		t.Errorf("reports = %v, want [1 2 3]", reports)
	}
	if c.Armed() {
		t.Error("counter still armed after the test ends")
	}
	if g.armed() != 0 {
		t.Errorf("%d interrupts left attached", g.armed())
	}
}
