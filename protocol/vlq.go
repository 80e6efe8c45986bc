package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// maxVLQLen is the longest encoding of a 32-bit value.
const maxVLQLen = 5

// EncodeVLQInt writes v as 7-bit groups, most significant first, with the
// high bit set on all but the last. The first group is sign-extended from
// bits 5 and 6, so values in -32..95 take one byte.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [maxVLQLen]byte
	n := 0
	for shift := uint(28); shift >= 7; shift -= 7 {
		// ranges nest, so once a group is needed all lower ones are too
		bound := int32(1) << (shift - 2)
		if v < -bound || v >= 3*bound {
			buf[n] = byte(v>>shift)&0x7F | 0x80
			n++
		}
	}
	buf[n] = byte(v) & 0x7F
	output.Output(buf[:n+1])
}

func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// EncodeVLQString writes a length-prefixed string.
func EncodeVLQString(output OutputBuffer, s string) {
	EncodeVLQUint(output, uint32(len(s)))
	output.Output([]byte(s))
}

// DecodeVLQInt reads one value from the front of data and returns the
// remaining bytes.
func DecodeVLQInt(data []byte) (int32, []byte, error) {
	if len(data) == 0 {
		return 0, data, ErrBufferTooSmall
	}
	c := data[0]
	v := uint32(c & 0x7F)
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	i := 1
	for c&0x80 != 0 {
		if i == len(data) {
			return 0, data, ErrBufferTooSmall
		}
		if i == maxVLQLen {
			return 0, data, ErrInvalidVLQ
		}
		c = data[i]
		v = v<<7 | uint32(c&0x7F)
		i++
	}
	return int32(v), data[i:], nil
}

func DecodeVLQUint(data []byte) (uint32, []byte, error) {
	v, rest, err := DecodeVLQInt(data)
	return uint32(v), rest, err
}

// DecodeVLQString reads a length-prefixed string.
func DecodeVLQString(data []byte) (string, []byte, error) {
	n, rest, err := DecodeVLQUint(data)
	if err != nil {
		return "", data, err
	}
	if uint32(len(rest)) < n {
		return "", data, ErrBufferTooSmall
	}
	return string(rest[:n]), rest[n:], nil
}
