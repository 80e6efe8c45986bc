package core

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestPIDManualHoldsOutput(t *testing.T) {
	p := NewPID(8, 3, 1)
	if out, ok := p.Compute(500); ok || out != 0 {
		t.Errorf("manual Compute = (%v, %v), want (0, false)", out, ok)
	}
}

func TestPIDProportionalOnMeasurement(t *testing.T) {
	p := NewPID(8, 0, 0)
	p.SetMode(PIDAutomatic)

	if out, _ := p.Compute(100); out != -800 {
		t.Errorf("first step output = %v, want -800", out)
	}
	// Unchanged measurement adds nothing; the proportional part is held
	// in the running sum.
	if out, _ := p.Compute(100); out != -800 {
		t.Errorf("held output = %v, want -800", out)
	}
	if out, _ := p.Compute(50); out != -400 {
		t.Errorf("after measurement drop output = %v, want -400", out)
	}
}

func TestPIDIntegralScaledBySampleTime(t *testing.T) {
	p := NewPID(0, 3, 0)
	p.SetMode(PIDAutomatic)
	// ki = 3 * 0.1 s; error = 0 - (-100)
	p.Compute(-100)
	out, _ := p.Compute(-100)
	if !near(out, 60) {
		t.Errorf("output after two steps = %v, want 60", out)
	}
}

func TestPIDDerivativeOnMeasurement(t *testing.T) {
	p := NewPID(0, 0, 1)
	p.SetMode(PIDAutomatic)
	// kd = 1 / 0.1 s
	if out, _ := p.Compute(50); !near(out, -500) {
		t.Errorf("derivative kick = %v, want -500", out)
	}
	if out, _ := p.Compute(50); !near(out, 0) {
		t.Errorf("steady measurement output = %v, want 0", out)
	}
}

func TestPIDClampAndAntiWindup(t *testing.T) {
	p := NewPID(0, 10, 0)
	p.SetOutputLimits(-10, 10)
	p.SetMode(PIDAutomatic)

	for i := 0; i < 50; i++ {
		p.Compute(-1000)
	}
	if p.Output() != 10 || !p.Saturated() {
		t.Fatalf("output = %v saturated=%v, want 10 true", p.Output(), p.Saturated())
	}
	// The sum is clamped too, so one step of opposite error leaves the limit
	// immediately instead of unwinding a huge integral.
	out, _ := p.Compute(1)
	if out >= 10 {
		t.Errorf("output after reversal = %v, want below 10", out)
	}
}

func TestPIDBumplessTransfer(t *testing.T) {
	p := NewPID(8, 0, 0)
	p.SetMode(PIDAutomatic)
	p.Compute(10) // -80

	p.SetMode(PIDManual)
	p.Compute(1000)
	p.SetMode(PIDAutomatic)

	if out, _ := p.Compute(10); out != -80 {
		t.Errorf("output after re-entering automatic = %v, want -80", out)
	}

	p.Reset()
	if p.Mode() != PIDManual || p.Output() != 0 {
		t.Errorf("Reset should clear output and drop to manual")
	}
}

func TestPIDInitializeReseedsMeasurement(t *testing.T) {
	p := NewPID(8, 0, 1)
	p.SetMode(PIDAutomatic)
	held, _ := p.Compute(10) // -80 - 100

	p.SetMode(PIDManual)
	p.SetMode(PIDAutomatic)
	p.Initialize(40)

	// The measurement moved while manual. Without the reseed the first step
	// would add -8*30 proportional and -10*30 derivative.
	if out, _ := p.Compute(40); !near(out, held) {
		t.Errorf("first step after Initialize = %v, want held %v", out, held)
	}
}
