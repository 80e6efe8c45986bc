package core

// Registers is the low-level decoder state the sync loop reads and steers.
type Registers interface {
	// ReadSampleCount returns the decoder's 32-bit played-sample counter
	ReadSampleCount() (uint32, error)

	// ResetSampleCount sets the counter to zero
	ResetSampleCount() error

	// RestoreSampleCount writes a previously read value back
	RestoreSampleCount(value uint32) error

	// SetRateTrim adjusts playback speed; one unit is about 2 ppm
	SetRateTrim(trim int32) error

	// EnableResampler switches the 15/16 resampler
	EnableResampler(enable bool) error

	// ClearErrorCounter zeroes the decoder's stream error counter
	ClearErrorCounter() error
}

// Player is the file-level playback control of the decoder.
type Player interface {
	Start(path string) error
	Pause(paused bool) error
	Stop() error

	// Stopped reports end of stream or an explicit Stop
	Stopped() bool

	// SetVolume takes attenuation per channel, 0 is loudest and 254 silent
	SetVolume(left, right uint8) error

	// SampleRate returns the physical rate of the current stream
	SampleRate() (uint16, error)

	// OutputConnected reports whether the audio output is plugged in
	OutputConnected() bool
}

// Decoder combines playback and register access.
type Decoder interface {
	Registers
	Player
}

// Track is a resolved soundtrack file.
type Track struct {
	Number int
	FPS    uint8
	Loop   bool
	Path   string
}

// TrackResolver maps a track number to a file. Implementations return an
// error matching ErrTrackNotFound when nothing exists.
type TrackResolver interface {
	Resolve(number int) (Track, error)
}

// Operator is the input side of the user interface.
type Operator interface {
	// ConfirmManualStart polls the manual-start prompt. answered is false
	// while the operator has not decided yet.
	ConfirmManualStart() (confirmed, answered bool)

	// ButtonPressed returns true once per press
	ButtonPressed() bool

	// Value and SetValue access the rotary input
	Value() int
	SetValue(v int)
}
