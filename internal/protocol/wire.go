package protocol

import (
	"encoding/binary"
	"fmt"
)

// Preamble is the fixed 4-byte sync pattern. It is emitted doubled at
// the start of every frame.
var preamble = []byte{0xAA, 0xAA, 0xAA, 0xAA}

// startDelimiter and endDelimiter bracket the length-prefixed message
// body. The end delimiter is advisory: the decoder accepts a message
// whose end delimiter is missing or corrupted.
var (
	startDelimiter = []byte{0x7E, 0x7E}
	endDelimiter   = []byte{0x7E, 0x7E}
)

// Encoder assigns sequence numbers and turns Messages into framed
// on-air byte streams.
type Encoder struct {
	sequenceCounter uint32
}

// NewEncoder returns an Encoder with its sequence counter at zero.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// NextSequenceNumber returns the sequence number the next EncodeText
// call will assign.
func (e *Encoder) NextSequenceNumber() uint32 {
	return e.sequenceCounter
}

// AdvanceSequence increments the sequence counter. Callers that build
// their own Message (rather than going through EncodeText) use this to
// advance the counter once the message has been acknowledged.
func (e *Encoder) AdvanceSequence() {
	e.sequenceCounter++
}

// EncodeText builds a Text message with the next sequence number,
// advances the counter, and frames it.
func (e *Encoder) EncodeText(text string) ([]byte, error) {
	msg, err := NewText(text, e.sequenceCounter)
	if err != nil {
		return nil, err
	}
	e.sequenceCounter++
	return EncodeMessage(msg)
}

// EncodeMessage frames an already-constructed message. It does not
// touch the encoder's sequence counter.
func EncodeMessage(msg Message) ([]byte, error) {
	body, err := Marshal(msg)
	if err != nil {
		return nil, err
	}
	if len(body) > 0xFFFF {
		return nil, fmt.Errorf("protocol: %w: message body %d bytes exceeds 16-bit length field", ErrEncoding, len(body))
	}

	frame := make([]byte, 0, len(preamble)*2+len(startDelimiter)+2+len(body)+len(endDelimiter))
	frame = append(frame, preamble...)
	frame = append(frame, preamble...)
	frame = append(frame, startDelimiter...)

	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(body)))
	frame = append(frame, length...)

	frame = append(frame, body...)
	frame = append(frame, endDelimiter...)

	return frame, nil
}
