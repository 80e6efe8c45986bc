package protocol

import (
	"bytes"
	"testing"
)

func TestVLQEncoding(t *testing.T) {
	tests := []struct {
		value int32
		want  []byte
	}{
		{0, []byte{0x00}},
		{95, []byte{0x5F}},
		{96, []byte{0x80, 0x60}},
		{-1, []byte{0x7F}},
		{-32, []byte{0x60}},
		{-33, []byte{0xFF, 0x5F}},
		{918, []byte{0x87, 0x16}},
	}

	for _, tt := range tests {
		out := NewScratchOutput()
		EncodeVLQInt(out, tt.value)
		if !bytes.Equal(out.Result(), tt.want) {
			t.Errorf("EncodeVLQInt(%d) = % x, want % x", tt.value, out.Result(), tt.want)
		}
	}
}

func TestVLQRoundTrip(t *testing.T) {
	values := []int32{
		0, 1, -1, 127, -127, 128, -128,
		1000, -1000, 65535, -65535,
		82430, -187000, 1000000, -1000000,
		1<<31 - 1, -1 << 31,
	}

	for _, v := range values {
		out := NewScratchOutput()
		EncodeVLQInt(out, v)
		if n := out.CurPosition(); n > maxVLQLen {
			t.Errorf("%d encoded in %d bytes", v, n)
		}

		got, rest, err := DecodeVLQInt(out.Result())
		if err != nil {
			t.Errorf("DecodeVLQInt(%d): %v", v, err)
			continue
		}
		if got != v {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as % x)", v, got, out.Result())
		}
		if len(rest) != 0 {
			t.Errorf("%d: %d bytes left over", v, len(rest))
		}
	}

	// Unsigned values above MaxInt32 survive the signed encoding
	out := NewScratchOutput()
	EncodeVLQUint(out, 0xFFFFFFF0)
	if got, _, err := DecodeVLQUint(out.Result()); err != nil || got != 0xFFFFFFF0 {
		t.Errorf("DecodeVLQUint = %#x, %v", got, err)
	}
}

func TestVLQSequence(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQInt(out, -5)
	EncodeVLQString(out, "Bauer P7")
	EncodeVLQUint(out, 44100)

	data := out.Result()
	i, data, err := DecodeVLQInt(data)
	if err != nil || i != -5 {
		t.Fatalf("first value = %d, %v", i, err)
	}
	s, data, err := DecodeVLQString(data)
	if err != nil || s != "Bauer P7" {
		t.Fatalf("string = %q, %v", s, err)
	}
	u, data, err := DecodeVLQUint(data)
	if err != nil || u != 44100 {
		t.Fatalf("last value = %d, %v", u, err)
	}
	if len(data) != 0 {
		t.Errorf("%d bytes left over", len(data))
	}
}

func TestVLQErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBufferTooSmall},
		{"unterminated", []byte{0x81, 0x82}, ErrBufferTooSmall},
		{"too long", []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}, ErrInvalidVLQ},
	}
	for _, tt := range tests {
		if _, _, err := DecodeVLQInt(tt.data); err != tt.want {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}

	// Declared length longer than the data
	if _, _, err := DecodeVLQString([]byte{0x05, 'a', 'b'}); err != ErrBufferTooSmall {
		t.Errorf("short string: err = %v", err)
	}
}
