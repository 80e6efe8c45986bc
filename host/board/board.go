// Package board follows the telemetry stream of a running Synkino.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"synkino/core"
	"synkino/host/serial"
	"synkino/protocol"
)

// Event is one decoded telemetry message.
type Event struct {
	At    time.Time
	Value interface{} // protocol.Hello, SyncStatus, StateChange or LogLine
}

// Board is a connection to a Synkino's telemetry port.
type Board struct {
	port serial.Port
	log  *slog.Logger

	mu      sync.Mutex
	hello   *protocol.Hello
	state   core.PlaybackState
	dropped int
	missed  int
	bad     int

	connected bool
}

// New wraps an open port.
func New(port serial.Port, log *slog.Logger) *Board {
	if log == nil {
		log = slog.Default()
	}
	return &Board{port: port, log: log, state: core.StateQuit, connected: true}
}

// Connect opens the board's serial device.
func Connect(device string, log *slog.Logger) (*Board, error) {
	return ConnectWithConfig(serial.DefaultConfig(device), log)
}

// ConnectWithConfig opens a board with a custom serial config
func ConnectWithConfig(cfg serial.Config, log *slog.Logger) (*Board, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, err
	}
	return New(port, log), nil
}

// Close closes the connection.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil
	}
	b.connected = false
	return b.port.Close()
}

// IsConnected returns whether the port is open.
func (b *Board) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Follow reads telemetry until ctx is cancelled or the port fails, calling
// fn for every decoded message. Cancelling ctx closes the port.
func (b *Board) Follow(ctx context.Context, fn func(Event)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			b.Close()
		case <-done:
		}
	}()

	reader := protocol.NewFrameReader()
	buf := make([]byte, 256)
	for {
		n, err := b.port.Read(buf)
		for _, m := range reader.Feed(buf[:n]) {
			b.handle(m, fn)
		}
		b.mu.Lock()
		b.dropped, b.missed = reader.Dropped, reader.Missed
		b.mu.Unlock()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("telemetry read: %w", err)
		}
	}
}

func (b *Board) handle(m *protocol.Message, fn func(Event)) {
	v, err := protocol.Decode(m)
	if err != nil {
		b.mu.Lock()
		b.bad++
		b.mu.Unlock()
		b.log.Debug("board: undecodable message", "err", err, "seq", m.Sequence)
		return
	}

	b.mu.Lock()
	switch msg := v.(type) {
	case protocol.Hello:
		b.hello = &msg
	case protocol.StateChange:
		b.state = core.PlaybackState(msg.To)
	case protocol.SyncStatus:
		b.state = core.PlaybackState(msg.State)
	}
	b.mu.Unlock()

	switch msg := v.(type) {
	case protocol.Hello:
		b.log.Info("board: hello", "protocol", msg.Protocol, "profile", msg.Profile)
		if msg.Protocol != protocol.Version {
			b.log.Warn("board: protocol version mismatch", "board", msg.Protocol, "host", protocol.Version)
		}
	case protocol.StateChange:
		b.log.Debug("board: state", "from", core.PlaybackState(msg.From).String(), "to", core.PlaybackState(msg.To).String())
	case protocol.LogLine:
		b.log.Info("board: " + msg.Text)
	}
	if fn != nil {
		fn(Event{At: time.Now(), Value: v})
	}
}

// Stats counts link problems.
type Stats struct {
	Dropped int // corrupt frames
	Missed  int // sequence gaps
	Bad     int // frames that did not decode
}

// Stats returns the link counters.
func (b *Board) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Dropped: b.dropped, Missed: b.missed, Bad: b.bad}
}

// Hello returns the board's announcement, if one was seen.
func (b *Board) Hello() (protocol.Hello, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hello == nil {
		return protocol.Hello{}, false
	}
	return *b.hello, true
}

// State returns the last reported playback state.
func (b *Board) State() core.PlaybackState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
