package board

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"synkino/core"
	"synkino/protocol"
)

type bufPort struct {
	*bytes.Reader
	closed bool
}

func (p *bufPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *bufPort) Flush() error                { return nil }
func (p *bufPort) Close() error                { p.closed = true; return nil }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestFollowDecodesStream(t *testing.T) {
	var wire bytes.Buffer
	f := protocol.NewFramer(&wire)
	protocol.SendHello(f, protocol.Hello{Protocol: protocol.Version, Profile: "Default"})
	protocol.SendStateChange(f, protocol.StateChange{From: uint8(core.StateStart), To: uint8(core.StatePlaying)})
	protocol.SendSyncStatus(f, protocol.SyncStatus{State: uint8(core.StatePlaying), Impulses: 96, Delta: 12})
	wire.Write([]byte{0x01, 0x02, 0x03, protocol.MessageValueSync})
	protocol.SendLog(f, "session: end of track")

	port := &bufPort{Reader: bytes.NewReader(wire.Bytes())}
	b := New(port, quiet)

	var events []Event
	err := b.Follow(context.Background(), func(e Event) { events = append(events, e) })
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Follow = %v, want EOF", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if s, ok := events[2].Value.(protocol.SyncStatus); !ok || s.Impulses != 96 || s.Delta != 12 {
		t.Errorf("event 2 = %+v", events[2].Value)
	}
	if h, ok := b.Hello(); !ok || h.Profile != "Default" {
		t.Errorf("hello = %+v, %v", h, ok)
	}
	if b.State() != core.StatePlaying {
		t.Errorf("state = %v", b.State())
	}
	if st := b.Stats(); st.Dropped != 1 || st.Missed != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestFollowCancelClosesPort(t *testing.T) {
	pr, pw := io.Pipe()
	port := &pipePort{PipeReader: pr}
	b := New(port, quiet)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan struct{}, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- b.Follow(ctx, func(Event) { got <- struct{}{} })
	}()

	f := protocol.NewFramer(pw)
	if err := protocol.SendLog(f, "hello"); err != nil {
		t.Fatalf("SendLog: %v", err)
	}
	<-got
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Follow = %v, want context.Canceled", err)
	}
	if b.IsConnected() {
		t.Errorf("port still open after cancel")
	}
}

type pipePort struct {
	*io.PipeReader
}

func (p *pipePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *pipePort) Flush() error                { return nil }
func (p *pipePort) Close() error                { return p.PipeReader.Close() }
