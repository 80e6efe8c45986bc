package protocol

// Telemetry message IDs
const (
	MsgHello      = 1
	MsgSyncStatus = 2
	MsgState      = 3
	MsgLog        = 4
)

// maxLogText keeps a log message inside one frame.
const maxLogText = MessageLengthMax - MessageLengthMin - 4

// Hello is sent once when the firmware starts.
type Hello struct {
	Protocol string
	Profile  string
}

// SyncStatus is sent after every control tick.
type SyncStatus struct {
	State       uint8
	Impulses    uint32
	SyncOffset  int32
	Delta       int32
	Output      int32
	FrameOffset int32
	Elapsed     uint32
}

// StateChange is sent on every playback state transition.
type StateChange struct {
	From  uint8
	To    uint8
	Clock uint32
}

// LogLine carries one firmware log message.
type LogLine struct {
	Text string
}

// SendHello announces the firmware.
func SendHello(f *Framer, h Hello) error {
	return f.Send(MsgHello, func(out OutputBuffer) {
		EncodeVLQString(out, truncate(h.Protocol, 8))
		EncodeVLQString(out, truncate(h.Profile, 20))
	})
}

// SendSyncStatus reports one control tick.
func SendSyncStatus(f *Framer, s SyncStatus) error {
	return f.Send(MsgSyncStatus, func(out OutputBuffer) {
		EncodeVLQUint(out, uint32(s.State))
		EncodeVLQUint(out, s.Impulses)
		EncodeVLQInt(out, s.SyncOffset)
		EncodeVLQInt(out, s.Delta)
		EncodeVLQInt(out, s.Output)
		EncodeVLQInt(out, s.FrameOffset)
		EncodeVLQUint(out, s.Elapsed)
	})
}

// SendStateChange reports a transition.
func SendStateChange(f *Framer, c StateChange) error {
	return f.Send(MsgState, func(out OutputBuffer) {
		EncodeVLQUint(out, uint32(c.From))
		EncodeVLQUint(out, uint32(c.To))
		EncodeVLQUint(out, c.Clock)
	})
}

// SendLog forwards a log line, truncated to fit one frame.
func SendLog(f *Framer, text string) error {
	return f.Send(MsgLog, func(out OutputBuffer) {
		EncodeVLQString(out, truncate(text, maxLogText))
	})
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Decode parses a frame payload into Hello, SyncStatus, StateChange or
// LogLine.
func Decode(m *Message) (interface{}, error) {
	id, data, err := DecodeVLQUint(m.Payload)
	if err != nil {
		return nil, err
	}

	var d decoder
	d.data = data
	switch id {
	case MsgHello:
		h := Hello{Protocol: d.readString(), Profile: d.readString()}
		return h, d.err
	case MsgSyncStatus:
		s := SyncStatus{
			State:       uint8(d.readUint()),
			Impulses:    d.readUint(),
			SyncOffset:  d.readInt(),
			Delta:       d.readInt(),
			Output:      d.readInt(),
			FrameOffset: d.readInt(),
			Elapsed:     d.readUint(),
		}
		return s, d.err
	case MsgState:
		c := StateChange{From: uint8(d.readUint()), To: uint8(d.readUint()), Clock: d.readUint()}
		return c, d.err
	case MsgLog:
		l := LogLine{Text: d.readString()}
		return l, d.err
	}
	return nil, ErrBadMessage
}

// decoder keeps the first error so field lists read straight.
type decoder struct {
	data []byte
	err  error
}

func (d *decoder) readInt() int32 {
	if d.err != nil {
		return 0
	}
	v, rest, err := DecodeVLQInt(d.data)
	d.data, d.err = rest, err
	return v
}

func (d *decoder) readUint() uint32 {
	return uint32(d.readInt())
}

func (d *decoder) readString() string {
	if d.err != nil {
		return ""
	}
	s, rest, err := DecodeVLQString(d.data)
	d.data, d.err = rest, err
	return s
}
