package core

import "errors"

var (
	// ErrTrackNotFound means no file exists for the selected track number.
	ErrTrackNotFound = errors.New("track not found")

	// ErrDeviceNotReady means the audio output is not connected.
	ErrDeviceNotReady = errors.New("audio output not connected")

	// ErrCalibrationStall means the decoder never reported a real sample rate.
	ErrCalibrationStall = errors.New("decoder sample rate did not settle")

	// ErrCancelled means the session context was cancelled before QUIT.
	ErrCancelled = errors.New("session cancelled")

	// ErrSessionActive means SelectAndPlay was called while a session runs.
	ErrSessionActive = errors.New("session already running")
)

// ErrorKind classifies the outcome of SelectAndPlay.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindFile
	KindDeviceNotReady
	KindCalibrationStall
	KindCancelled
	KindDecoder
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFile:
		return "file"
	case KindDeviceNotReady:
		return "device-not-ready"
	case KindCalibrationStall:
		return "calibration-stall"
	case KindCancelled:
		return "cancelled"
	}
	return "decoder"
}

// Classify maps an error returned by the engine to its kind. Unknown errors
// are decoder faults.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTrackNotFound):
		return KindFile
	case errors.Is(err, ErrDeviceNotReady):
		return KindDeviceNotReady
	case errors.Is(err, ErrCalibrationStall):
		return KindCalibrationStall
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	}
	return KindDecoder
}
