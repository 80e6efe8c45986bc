package protocol

import (
	"errors"
	"io"
)

var (
	ErrFrameTooLong = errors.New("frame exceeds maximum length")
	ErrBadMessage   = errors.New("malformed telemetry message")
)

// FrameReader splits a byte stream into frames. Garbage and corrupted
// frames are skipped by hunting for the next sync byte.
type FrameReader struct {
	input          *StreamBuffer
	isSynchronized bool
	lastSeq        uint8
	haveSeq        bool

	// Dropped counts frames discarded for bad length, CRC or framing.
	Dropped int
	// Missed counts frames lost in transit, inferred from sequence gaps.
	Missed int
}

// NewFrameReader creates a reader.
func NewFrameReader() *FrameReader {
	return &FrameReader{
		input:          NewStreamBuffer(4 * MessageMax),
		isSynchronized: true,
	}
}

// Feed appends raw bytes and returns every complete frame.
func (r *FrameReader) Feed(raw []byte) []*Message {
	var msgs []*Message
	for len(raw) > 0 {
		n := r.input.Write(raw)
		raw = raw[n:]
		msgs = append(msgs, r.parse(r.input)...)
		if n == 0 {
			// Full of undecodable bytes; start over.
			r.input.Reset()
			r.isSynchronized = false
		}
	}
	return msgs
}

func (r *FrameReader) parse(input InputBuffer) []*Message {
	var msgs []*Message
	data := input.Data()

	for len(data) > 0 {
		if !r.isSynchronized {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			r.isSynchronized = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		seq := data[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
			r.desync()
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			r.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			r.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		msgs = append(msgs, &Message{
			Length:   uint8(msgLen),
			Sequence: seq,
			Payload:  payload,
			CRC:      frameCRC,
		})
		r.trackSequence(seq)
		data = data[msgLen:]
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
	return msgs
}

func (r *FrameReader) desync() {
	r.isSynchronized = false
	r.Dropped++
}

func (r *FrameReader) trackSequence(seq uint8) {
	seq &= MessageSeqMask
	if r.haveSeq {
		r.Missed += int((seq - r.lastSeq - 1) & MessageSeqMask)
	}
	r.lastSeq = seq
	r.haveSeq = true
}

// ReadFrames reads src until it fails and calls fn for each frame. It
// returns the read error, io.EOF included.
func ReadFrames(src io.Reader, fn func(*Message)) error {
	r := NewFrameReader()
	buf := make([]byte, 256)
	for {
		n, err := src.Read(buf)
		for _, m := range r.Feed(buf[:n]) {
			fn(m)
		}
		if err != nil {
			return err
		}
	}
}
