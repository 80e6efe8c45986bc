package core

import "testing"

func TestCalibrationIdentities(t *testing.T) {
	rates := []uint32{22050, 32000, 44100, 48000}
	fpsValues := []uint8{16, 18, 24, 25}

	for _, fs := range rates {
		for _, fps := range fpsValues {
			for blades := uint8(1); blades <= 4; blades++ {
				c, err := NewCalibration(fs, fps, blades)
				if err != nil {
					t.Fatalf("NewCalibration(%d, %d, %d): %v", fs, fps, blades, err)
				}
				if want := fs / uint32(fps) / uint32(blades); c.ImpulsesPerSamplePeriod != want {
					t.Errorf("%d/%d/%d: impulsesPerSamplePeriod = %d, want %d", fs, fps, blades, c.ImpulsesPerSamplePeriod, want)
				}
				if want := fs / uint32(fps); c.SamplesPerFrame != want {
					t.Errorf("%d/%d: samplesPerFrame = %d, want %d", fs, fps, c.SamplesPerFrame, want)
				}
				if want := uint32(fps) * uint32(blades); c.ImpulsesPerSecond != want {
					t.Errorf("%d/%d: impulsesPerSecond = %d, want %d", fps, blades, c.ImpulsesPerSecond, want)
				}
			}
		}
	}
}

func TestCalibrationReferencePoint(t *testing.T) {
	c, _ := NewCalibration(44100, 24, 2)
	if c.ImpulsesPerSamplePeriod != 918 {
		t.Errorf("impulsesPerSamplePeriod = %d, want 918", c.ImpulsesPerSamplePeriod)
	}
	if c.SamplesPerFrame != 1837 {
		t.Errorf("samplesPerFrame = %d, want 1837", c.SamplesPerFrame)
	}
	if got := c.PauseThreshold(); got != 125000 {
		t.Errorf("PauseThreshold = %d, want 125000", got)
	}
	if got := c.DesiredSamples(100, -4); got != 96*918 {
		t.Errorf("DesiredSamples(100, -4) = %d, want %d", got, 96*918)
	}
	if got := c.ElapsedSeconds(48*90, 0); got != 90 {
		t.Errorf("ElapsedSeconds = %d, want 90", got)
	}
}

func TestCalibrationRejectsZero(t *testing.T) {
	if _, err := NewCalibration(44100, 0, 2); err == nil {
		t.Errorf("expected error for fps=0")
	}
	if _, err := NewCalibration(44100, 24, 0); err == nil {
		t.Errorf("expected error for blades=0")
	}
}

func TestOutputLimits(t *testing.T) {
	tests := []struct {
		rate uint32
		max  float64
	}{
		{32000, 307200},
		{44100, 82430},
		{48000, 34133},
		{22050, 511999},
		{11025, 511999},
	}
	for _, tt := range tests {
		min, max := OutputLimits(tt.rate)
		if min != -187000 || max != tt.max {
			t.Errorf("OutputLimits(%d) = (%v, %v), want (-187000, %v)", tt.rate, min, max, tt.max)
		}
	}
	if NeedsResampler(24000) || !NeedsResampler(32000) {
		t.Errorf("resampler threshold should be above 24000 Hz")
	}
}

func TestMovingAverage(t *testing.T) {
	var m MovingAverage
	if got := m.Add(60); got != 10 {
		t.Errorf("first sample mean = %d, want 10", got)
	}
	for i := 0; i < 5; i++ {
		m.Add(60)
	}
	if got := m.Add(-60); got != 40 {
		t.Errorf("mean after one negative sample = %d, want 40", got)
	}
	m.Reset()
	if got := m.Add(-7); got != -1 {
		t.Errorf("mean truncates toward zero: got %d, want -1", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := FormatElapsed(3725); got != "1:02:05" {
		t.Errorf("FormatElapsed(3725) = %q", got)
	}
	if got := FormatElapsed(0); got != "0:00:00" {
		t.Errorf("FormatElapsed(0) = %q", got)
	}
}
