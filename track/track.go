// Package track maps track numbers to soundtrack files on the card.
//
// A track is stored as NNN-FF.ogg where NNN is the zero-padded track number
// and FF the film speed it was mastered for. A -L suffix marks a loop.
package track

import (
	"io/fs"

	"synkino/core"
)

const (
	// Autostart is played without operator input when present.
	Autostart = 999

	MinFPS = 12
	MaxFPS = 25
)

// ErrNotFound is returned when no file exists for a track number.
var ErrNotFound = core.ErrTrackNotFound

// Store answers whether a file exists.
type Store interface {
	Exists(name string) bool
}

// Library resolves track numbers against a Store.
type Library struct {
	store Store
}

// NewLibrary creates a library on store.
func NewLibrary(store Store) *Library {
	return &Library{store: store}
}

// Resolve implements core.TrackResolver. Plain files are preferred over
// loop files; within each, the lowest frame rate wins.
func (l *Library) Resolve(number int) (core.Track, error) {
	if number < 1 || number > 999 {
		return core.Track{}, ErrNotFound
	}
	for _, loop := range []bool{false, true} {
		for fps := MinFPS; fps <= MaxFPS; fps++ {
			name := FileName(number, uint8(fps), loop)
			if l.store.Exists(name) {
				return core.Track{Number: number, FPS: uint8(fps), Loop: loop, Path: name}, nil
			}
		}
	}
	return core.Track{}, ErrNotFound
}

// HasAutostart reports whether track 999 is present.
func (l *Library) HasAutostart() bool {
	_, err := l.Resolve(Autostart)
	return err == nil
}

// FileName builds the on-card name for a track.
func FileName(number int, fps uint8, loop bool) string {
	name := pad(number, 3) + "-" + pad(int(fps), 2)
	if loop {
		name += "-L"
	}
	return name + ".ogg"
}

func pad(n, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf)
}

// FSStore adapts an io/fs file system.
type FSStore struct {
	FS fs.FS
}

// Exists implements Store.
func (s FSStore) Exists(name string) bool {
	info, err := fs.Stat(s.FS, name)
	return err == nil && !info.IsDir()
}
