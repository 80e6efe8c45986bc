package protocol

import (
	"io"
	"sync"
)

// Framer wraps messages into frames and writes them to w. Safe for use
// from several goroutines; each Send writes one whole frame.
type Framer struct {
	mu  sync.Mutex
	w   io.Writer
	seq uint8
	out ScratchOutput
}

// NewFramer creates a framer writing to w.
func NewFramer(w io.Writer) *Framer {
	return &Framer{w: w}
}

// Send encodes msgID and the arguments written by args as one frame.
// Frames that would exceed MessageLengthMax are dropped with
// ErrFrameTooLong.
func (f *Framer) Send(msgID uint16, args func(output OutputBuffer)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.out.Reset()
	if err := EncodeFrame(&f.out, MessageDest|f.seq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(msgID))
		if args != nil {
			args(output)
		}
	}); err != nil {
		return err
	}
	f.seq = (f.seq + 1) & MessageSeqMask

	_, err := f.w.Write(f.out.Result())
	return err
}

// EncodeFrame appends one frame with sequence byte seq to output.
func EncodeFrame(output OutputBuffer, seq uint8, frameData func(output OutputBuffer)) error {
	cursor := output.CurPosition()

	// Length placeholder and sequence
	output.Output([]byte{0, seq})

	frameData(output)

	length := len(output.DataSince(cursor)) + MessageTrailerSize
	if length > MessageLengthMax {
		return ErrFrameTooLong
	}
	output.Update(cursor, uint8(length))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	return nil
}
