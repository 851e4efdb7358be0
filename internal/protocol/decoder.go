package protocol

import (
	"bytes"
	"encoding/binary"

	"github.com/charmbracelet/log"
)

type decoderState int

const (
	waitingForPreamble decoderState = iota
	waitingForStart
	readingLength
	readingMessage
	waitingForEnd
)

// maxBufferSize and keepBufferSize implement the decoder's backpressure
// rule: once the internal buffer grows past maxBufferSize without
// producing a message, the oldest bytes are dropped down to
// keepBufferSize and the decoder resets to waitingForPreamble.
const (
	maxBufferSize  = 10000
	keepBufferSize = 5000
)

// Decoder is a stateful, resynchronizing parser that turns a lossy byte
// stream into verified Messages. It never blocks: Feed returns whatever
// complete, checksum-valid messages the newly appended bytes produced
// and retains any partial frame for the next call.
//
// A Decoder is not safe for concurrent use; callers must serialize Feed
// calls.
type Decoder struct {
	buffer         []byte
	state          decoderState
	expectedLength int
	logger         *log.Logger
}

// NewDecoder returns a Decoder ready to receive bytes.
func NewDecoder() *Decoder {
	return &Decoder{
		state:  waitingForPreamble,
		logger: log.Default().With("component", "protocol.Decoder"),
	}
}

// Feed appends data to the internal buffer and extracts as many
// complete, checksum-valid messages as the buffer now contains.
func (d *Decoder) Feed(data []byte) []Message {
	d.buffer = append(d.buffer, data...)

	var messages []Message
	for {
		msg, ok, err := d.tryDecodeOne()
		if err != nil {
			d.logger.Warn("failed to decode message", "err", err)
			d.state = waitingForPreamble
			continue
		}
		if !ok {
			break
		}

		valid, verr := msg.VerifyChecksum()
		if verr != nil || !valid {
			d.logger.Warn("message failed checksum verification")
			continue
		}
		messages = append(messages, msg)
	}

	if len(d.buffer) > maxBufferSize {
		d.buffer = d.buffer[len(d.buffer)-keepBufferSize:]
		d.state = waitingForPreamble
	}

	return messages
}

// Reset clears the decoder's buffer and state, as if newly constructed.
func (d *Decoder) Reset() {
	d.buffer = nil
	d.state = waitingForPreamble
	d.expectedLength = 0
}

// tryDecodeOne advances the state machine as far as the current buffer
// allows, returning at most one message per call. ok is false when the
// buffer is exhausted for the current state; err is non-nil only for
// unrecoverable per-message faults (the caller is expected to reset
// state and keep consuming bytes, matching the self-resynchronizing
// behavior required of the streaming decoder).
func (d *Decoder) tryDecodeOne() (Message, bool, error) {
	for {
		switch d.state {
		case waitingForPreamble:
			pos := d.findDoublePreamble()
			if pos < 0 {
				return Message{}, false, nil
			}
			d.buffer = d.buffer[pos:]
			d.state = waitingForStart

		case waitingForStart:
			need := len(preamble)*2 + len(startDelimiter)
			if len(d.buffer) < need {
				return Message{}, false, nil
			}
			start := len(preamble) * 2
			if bytes.Equal(d.buffer[start:start+len(startDelimiter)], startDelimiter) {
				d.buffer = d.buffer[start+len(startDelimiter):]
				d.state = readingLength
			} else {
				d.buffer = d.buffer[1:]
				d.state = waitingForPreamble
			}

		case readingLength:
			if len(d.buffer) < 2 {
				return Message{}, false, nil
			}
			length := int(binary.BigEndian.Uint16(d.buffer[:2]))
			if length > MaxMessageLength*2 {
				d.buffer = d.buffer[1:]
				d.state = waitingForPreamble
				continue
			}
			d.expectedLength = length
			d.buffer = d.buffer[2:]
			d.state = readingMessage

		case readingMessage:
			if len(d.buffer) < d.expectedLength {
				return Message{}, false, nil
			}
			body := d.buffer[:d.expectedLength]
			d.buffer = d.buffer[d.expectedLength:]
			d.state = waitingForEnd

			msg, err := Unmarshal(body)
			if err != nil {
				d.state = waitingForPreamble
				return Message{}, false, err
			}

			if len(d.buffer) >= len(endDelimiter) && bytes.Equal(d.buffer[:len(endDelimiter)], endDelimiter) {
				d.buffer = d.buffer[len(endDelimiter):]
			} else {
				d.logger.Warn("missing end delimiter, accepting message anyway")
			}
			d.state = waitingForPreamble
			return msg, true, nil

		case waitingForEnd:
			if len(d.buffer) < len(endDelimiter) {
				return Message{}, false, nil
			}
			if bytes.Equal(d.buffer[:len(endDelimiter)], endDelimiter) {
				d.buffer = d.buffer[len(endDelimiter):]
			} else {
				d.buffer = d.buffer[1:]
			}
			d.state = waitingForPreamble
		}
	}
}

func (d *Decoder) findDoublePreamble() int {
	pattern := append(append([]byte{}, preamble...), preamble...)
	return bytes.Index(d.buffer, pattern)
}
