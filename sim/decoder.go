package sim

import (
	"errors"
	"time"

	"synkino/core"
)

var errNoStream = errors.New("sim: no stream started")

// Decoder models the decoder's sample counter. It plays at its nominal rate
// off by RatePPM, steered by the rate trim at 2 ppm per unit.
type Decoder struct {
	Rate             uint16
	RatePPM          float64
	PlaceholderReads int
	Length           time.Duration // 0 plays forever
	Connected        bool

	counter     float64
	played      time.Duration
	placeholder int
	trim        int32
	started     bool
	paused      bool
	stopped     bool
	resampler   bool
	left, right uint8
	trims       int
}

var _ core.Decoder = (*Decoder)(nil)

// Advance plays dt of audio when running.
func (d *Decoder) Advance(dt time.Duration) {
	if !d.started || d.paused || d.stopped {
		return
	}
	speed := (1 + d.RatePPM*1e-6) * (1 + float64(d.trim)*2e-6)
	d.counter += float64(d.Rate) * speed * dt.Seconds()
	d.played += dt
	if d.Length > 0 && d.played >= d.Length {
		d.stopped = true
	}
}

func (d *Decoder) ReadSampleCount() (uint32, error) {
	return uint32(uint64(d.counter)), nil
}

func (d *Decoder) ResetSampleCount() error {
	d.counter = 0
	return nil
}

func (d *Decoder) RestoreSampleCount(v uint32) error {
	d.counter = float64(v)
	return nil
}

func (d *Decoder) SetRateTrim(trim int32) error {
	d.trim = trim
	d.trims++
	return nil
}

func (d *Decoder) EnableResampler(enable bool) error {
	d.resampler = enable
	return nil
}

func (d *Decoder) ClearErrorCounter() error { return nil }

func (d *Decoder) Start(path string) error {
	d.started = true
	d.paused = false
	d.stopped = false
	d.played = 0
	d.placeholder = d.PlaceholderReads
	return nil
}

func (d *Decoder) Pause(paused bool) error {
	if !d.started {
		return errNoStream
	}
	d.paused = paused
	return nil
}

func (d *Decoder) Stop() error {
	d.stopped = true
	return nil
}

func (d *Decoder) Stopped() bool { return d.stopped }

func (d *Decoder) SetVolume(left, right uint8) error {
	d.left, d.right = left, right
	return nil
}

func (d *Decoder) SampleRate() (uint16, error) {
	if !d.started {
		return 0, errNoStream
	}
	if d.placeholder > 0 {
		d.placeholder--
		return core.PlaceholderSampleRate, nil
	}
	return d.Rate, nil
}

func (d *Decoder) OutputConnected() bool { return d.Connected }

// Trim returns the last rate trim written.
func (d *Decoder) Trim() int32 { return d.trim }

// Resampler reports whether the resampler is on.
func (d *Decoder) Resampler() bool { return d.resampler }

// TrimWrites counts rate-trim writes.
func (d *Decoder) TrimWrites() int { return d.trims }
