package protocol

// InputBuffer is the receive side seen by the frame parser.
type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer is what message encoders write into. Update patches an
// already written byte, used for the frame length.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// ScratchOutput holds one frame. Bytes past MessageMax are dropped; the
// framer rejects such frames by length before they are sent.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput returns an empty frame buffer.
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns the bytes written since the last Reset.
func (s *ScratchOutput) Result() []byte { return s.buf[:s.pos] }

func (s *ScratchOutput) Reset() { s.pos = 0 }

// StreamBuffer collects received bytes until the parser consumes them.
// Data is always one contiguous slice; Pop moves the unread tail to the
// front, which is cheap because the parser leaves at most one partial
// frame behind.
type StreamBuffer struct {
	buf []byte
	n   int
}

// NewStreamBuffer returns a buffer holding at most capacity bytes.
func NewStreamBuffer(capacity int) *StreamBuffer {
	return &StreamBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count taken.
func (b *StreamBuffer) Write(data []byte) int {
	n := copy(b.buf[b.n:], data)
	b.n += n
	return n
}

func (b *StreamBuffer) Data() []byte { return b.buf[:b.n] }

func (b *StreamBuffer) Available() int { return b.n }

// Free is the room left for Write.
func (b *StreamBuffer) Free() int { return len(b.buf) - b.n }

func (b *StreamBuffer) Pop(n int) {
	if n >= b.n {
		b.n = 0
		return
	}
	b.n = copy(b.buf, b.buf[n:b.n])
}

func (b *StreamBuffer) Reset() { b.n = 0 }
