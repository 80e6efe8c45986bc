package vs1053

// X memory locations of the patched firmware (vs1053b-patches 2.x).
const (
	xmemSampleCount = 0x1800 // 32-bit played-sample counter, LSW first
	xmemRateTune    = 0x1e07 // 32-bit fine rate tune
	xmemResampler   = 0x1e09 // bit 7 enables the 15/16 resampler
	xmemResync      = 0x1e29
	xmemRateApply   = 0x5b1c // write 0 to latch a new rate tune
	xmemErrorCount  = 0x5a82 // stream error counter
)

// resamplerOn is the resampler control word.
const resamplerOn = 0x0080

func (d *Device) writeXMem(addr uint16, words ...uint16) error {
	if err := d.sciWrite(RegWRAMAddr, addr); err != nil {
		return err
	}
	for _, w := range words {
		if err := d.sciWrite(RegWRAM, w); err != nil {
			return err
		}
	}
	return nil
}

// ReadSampleCount reads the 32-bit sample counter while the decoder keeps
// incrementing it. The high word is read both before and after the low
// word: a low word below 0x8000 means the low half may just have wrapped,
// so the later high word belongs to it, otherwise the earlier one does.
func (d *Device) ReadSampleCount() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.sciWrite(RegWRAMAddr, xmemSampleCount+1); err != nil {
		return 0, err
	}
	msb1, err := d.sciRead(RegWRAM)
	if err != nil {
		return 0, err
	}
	if err := d.sciWrite(RegWRAMAddr, xmemSampleCount); err != nil {
		return 0, err
	}
	lsb, err := d.sciRead(RegWRAM)
	if err != nil {
		return 0, err
	}
	msb2, err := d.sciRead(RegWRAM)
	if err != nil {
		return 0, err
	}

	msb := msb1
	if lsb < 0x8000 {
		msb = msb2
	}
	return uint32(msb)<<16 | uint32(lsb), nil
}

// ResetSampleCount sets the counter to zero.
func (d *Device) ResetSampleCount() error {
	return d.RestoreSampleCount(0)
}

// RestoreSampleCount writes value back, low word first.
func (d *Device) RestoreSampleCount(value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeXMem(xmemSampleCount, uint16(value), uint16(value>>16))
}

// SetRateTrim changes the playback rate by roughly trim * 2 ppm. Rewriting
// AUDATA with its own value makes the decoder pick up the new rate.
func (d *Device) SetRateTrim(trim int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := uint32(trim)
	if err := d.writeXMem(xmemRateTune, uint16(v), uint16(v>>16)); err != nil {
		return err
	}
	if err := d.writeXMem(xmemRateApply, 0); err != nil {
		return err
	}
	audata, err := d.sciRead(RegAudata)
	if err != nil {
		return err
	}
	return d.sciWrite(RegAudata, audata)
}

// EnableResampler switches the 15/16 resampler that keeps the rate tune in
// range for streams above 24 kHz.
func (d *Device) EnableResampler(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var word uint16
	if enable {
		word = resamplerOn
	}
	return d.writeXMem(xmemResampler, word)
}

// ClearErrorCounter zeroes the stream error counter.
func (d *Device) ClearErrorCounter() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeXMem(xmemErrorCount, 0)
}

// SampleRate returns the stream rate from AUDATA with the stereo bit
// masked. The chip reports 11025 Hz as 11024.
func (d *Device) SampleRate() (uint16, error) {
	v, err := d.ReadRegister(RegAudata)
	if err != nil {
		return 0, err
	}
	return NormalizeSampleRate(v), nil
}

// NormalizeSampleRate decodes a raw AUDATA value.
func NormalizeSampleRate(audata uint16) uint16 {
	rate := audata & 0xfffe
	if rate == 11024 {
		rate = 11025
	}
	return rate
}
