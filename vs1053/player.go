package vs1053

import (
	"io"
	"sync"

	"synkino/core"
)

var _ core.Decoder = (*Player)(nil)

// Opener opens a track file for streaming.
type Opener func(path string) (io.ReadCloser, error)

// maxChunksPerService bounds the work done in one Service call so the main
// loop keeps running while the decoder buffer is refilled.
const maxChunksPerService = 32

// Player streams a file to the decoder. It is serviced cooperatively from
// the main loop: call Service whenever there is time.
type Player struct {
	*Device

	open  Opener
	probe func() bool

	mu      sync.Mutex
	file    io.ReadCloser
	playing bool
	paused  bool
	buf     [DataChunk]byte
	err     error
}

// NewPlayer wraps dev. open resolves track paths.
func NewPlayer(dev *Device, open Opener) *Player {
	return &Player{Device: dev, open: open}
}

// SetOutputProbe installs the headphone/line-out detection. Without one
// the output is assumed connected.
func (p *Player) SetOutputProbe(probe func() bool) {
	p.probe = probe
}

// OutputConnected reports whether audio can be heard.
func (p *Player) OutputConnected() bool {
	if p.probe == nil {
		return true
	}
	return p.probe()
}

// Start resets the decoder and begins streaming path.
func (p *Player) Start(path string) error {
	p.Stop()

	if err := p.WriteRegister(RegMode, ModeLine1|ModeSDINew|ModeLayer12); err != nil {
		return err
	}
	p.Device.mu.Lock()
	err := p.writeXMem(xmemResync, 0)
	p.Device.mu.Unlock()
	if err != nil {
		return err
	}
	// DECODE_TIME must be written twice to clear it.
	p.WriteRegister(RegDecodeTime, 0)
	p.WriteRegister(RegDecodeTime, 0)

	f, err := p.open(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.file = f
	p.playing = true
	p.paused = false
	p.err = nil
	p.mu.Unlock()

	return p.Service()
}

// Pause stops or resumes feeding data. The decoder drains its buffer and
// holds position.
func (p *Player) Pause(paused bool) error {
	p.mu.Lock()
	p.paused = paused
	p.mu.Unlock()
	if !paused {
		return p.Service()
	}
	return nil
}

// Paused reports whether a track is loaded and paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && p.paused
}

// Stopped reports whether no track is playing, either after Stop or at the
// end of the file.
func (p *Player) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.playing
}

// Err returns the read error that ended playback, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop cancels playback and closes the file.
func (p *Player) Stop() error {
	p.mu.Lock()
	f := p.file
	wasPlaying := p.playing
	p.file = nil
	p.playing = false
	p.paused = false
	p.mu.Unlock()

	if f != nil {
		f.Close()
	}
	if !wasPlaying {
		return nil
	}
	return p.WriteRegister(RegMode, ModeLine1|ModeSDINew|ModeCancel)
}

// Service feeds the decoder while DREQ is high.
func (p *Player) Service() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < maxChunksPerService; i++ {
		if !p.playing || p.paused || !p.ReadyForData() {
			return nil
		}
		n, err := p.file.Read(p.buf[:])
		if n > 0 {
			if werr := p.WriteData(p.buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if err != io.EOF {
				p.err = err
			}
			p.file.Close()
			p.file = nil
			p.playing = false
			return nil
		}
	}
	return nil
}
