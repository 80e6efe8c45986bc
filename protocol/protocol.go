// Package protocol implements the telemetry link between the firmware and
// the host tools. Messages are VLQ-encoded and carried in CRC-checked
// frames:
//
//	[len][seq][payload...][crc hi][crc lo][0x7E]
//
// len counts the whole frame. seq carries 0x10 in the high nibble and a
// rolling 4-bit counter in the low nibble so the receiver can spot drops.
package protocol

// Version is the telemetry protocol version reported in the hello message
const Version = "1"

// Protocol constants
const (
	MessageMax = 512 // scratch buffer size

	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F
)

// Message is one received frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}
