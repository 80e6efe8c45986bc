package core

import "errors"

// PlaceholderSampleRate is what the decoder reports before it has parsed the
// stream header.
const PlaceholderSampleRate = 8000

// ResamplerThreshold is the physical rate above which the decoder's 15/16
// resampler must be enabled for fine rate tuning to stay in range.
const ResamplerThreshold = 24000

var errBadCalibration = errors.New("calibration: sample rate, fps and blades must be non-zero")

// Calibration holds the per-cue constants that convert between impulses and
// decoder samples.
type Calibration struct {
	SampleRate uint32
	FPS        uint8
	Blades     uint8

	ImpulsesPerSamplePeriod uint32 // samples per shutter impulse
	SamplesPerFrame         uint32
	ImpulsesPerSecond       uint32
}

// NewCalibration computes the constants with integer truncation.
func NewCalibration(sampleRate uint32, fps, blades uint8) (Calibration, error) {
	if sampleRate == 0 || fps == 0 || blades == 0 {
		return Calibration{}, errBadCalibration
	}
	return Calibration{
		SampleRate:              sampleRate,
		FPS:                     fps,
		Blades:                  blades,
		ImpulsesPerSamplePeriod: sampleRate / uint32(fps) / uint32(blades),
		SamplesPerFrame:         sampleRate / uint32(fps),
		ImpulsesPerSecond:       uint32(fps) * uint32(blades),
	}, nil
}

// DesiredSamples converts an impulse position into the sample position the
// decoder should be at.
func (c Calibration) DesiredSamples(impulses uint32, offset int32) uint32 {
	return uint32(int64(impulses)+int64(offset)) * c.ImpulsesPerSamplePeriod
}

// ElapsedSeconds converts an impulse position into film running time.
func (c Calibration) ElapsedSeconds(impulses uint32, offset int32) uint32 {
	if c.ImpulsesPerSecond == 0 {
		return 0
	}
	pos := int64(impulses) + int64(offset)
	if pos < 0 {
		return 0
	}
	return uint32(pos / int64(c.ImpulsesPerSecond))
}

// PauseThreshold is three frame periods in ticks.
func (c Calibration) PauseThreshold() uint32 {
	if c.FPS == 0 {
		return 0
	}
	return TimerFromUS(3000000 / uint32(c.FPS))
}

// OutputLimits returns the rate-trim clamp for a physical sample rate. One
// trim unit is roughly 2 ppm of playback speed.
func OutputLimits(sampleRate uint32) (min, max float64) {
	min = -187000
	switch sampleRate {
	case 32000:
		max = 307200
	case 44100:
		max = 82430
	case 48000:
		max = 34133
	default:
		max = 511999
	}
	return min, max
}

// NeedsResampler reports whether the rate requires the 15/16 resampler.
func NeedsResampler(sampleRate uint32) bool {
	return sampleRate > ResamplerThreshold
}
