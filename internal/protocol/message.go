package protocol

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ajhager/ultramodem/internal/fec"
)

// ProtocolVersion is the only message header version this package emits
// or accepts.
const ProtocolVersion byte = 1

// MaxMessageLength is the largest payload a single Message may carry.
const MaxMessageLength = 1024

// MessageType tags what a Message's payload means.
type MessageType string

// The four message kinds the wire format supports.
const (
	MessageText MessageType = "Text"
	MessageFile MessageType = "File"
	MessageAck  MessageType = "Ack"
	MessagePing MessageType = "Ping"
)

// MessageHeader precedes every message payload and participates in the
// checksum.
type MessageHeader struct {
	Version        byte        `json:"version"`
	MessageType    MessageType `json:"message_type"`
	SequenceNumber uint32      `json:"sequence_number"`
	Timestamp      uint64      `json:"timestamp"`
	PayloadLength  uint16      `json:"payload_length"`
}

// Message is the self-contained unit passed between the encoder/decoder
// and the application: a header, a raw payload, and the CRC covering
// both.
type Message struct {
	Header   MessageHeader `json:"header"`
	Payload  []byte        `json:"payload"`
	Checksum uint32        `json:"checksum"`
}

// NewText builds a Text message. It fails with ErrProtocol if text is
// longer than MaxMessageLength bytes.
func NewText(text string, sequenceNumber uint32) (Message, error) {
	payload := []byte(text)
	if len(payload) > MaxMessageLength {
		return Message{}, fmt.Errorf("protocol: %w: message too long: %d bytes (max %d)", ErrProtocol, len(payload), MaxMessageLength)
	}
	return newMessage(MessageText, payload, sequenceNumber)
}

// NewAck builds an empty-payload Ack message acknowledging sequenceNumber.
func NewAck(sequenceNumber uint32) (Message, error) {
	return newMessage(MessageAck, nil, sequenceNumber)
}

// NewPing builds a Ping message with a fixed "ping" payload.
func NewPing(sequenceNumber uint32) (Message, error) {
	return newMessage(MessagePing, []byte("ping"), sequenceNumber)
}

// NewFile builds a File message carrying one chunk of a file transfer.
// It fails with ErrProtocol if the chunk is larger than MaxMessageLength.
func NewFile(chunk []byte, sequenceNumber uint32) (Message, error) {
	if len(chunk) > MaxMessageLength {
		return Message{}, fmt.Errorf("protocol: %w: file chunk too long: %d bytes (max %d)", ErrProtocol, len(chunk), MaxMessageLength)
	}
	return newMessage(MessageFile, chunk, sequenceNumber)
}

func newMessage(t MessageType, payload []byte, sequenceNumber uint32) (Message, error) {
	header := MessageHeader{
		Version:        ProtocolVersion,
		MessageType:    t,
		SequenceNumber: sequenceNumber,
		Timestamp:      uint64(time.Now().Unix()),
		PayloadLength:  uint16(len(payload)),
	}

	checksum, err := calculateChecksum(header, payload)
	if err != nil {
		return Message{}, err
	}

	return Message{Header: header, Payload: payload, Checksum: checksum}, nil
}

// calculateChecksum computes CRC-32 ISO-HDLC over the JSON-serialized
// header concatenated with the raw payload bytes. This scope (header
// bytes || raw payload, not the serialized whole message) is the on-air
// contract two implementations must agree on to interoperate.
func calculateChecksum(header MessageHeader, payload []byte) (uint32, error) {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return 0, fmt.Errorf("protocol: %w: failed to serialize header: %v", ErrProtocol, err)
	}

	data := make([]byte, 0, len(headerBytes)+len(payload))
	data = append(data, headerBytes...)
	data = append(data, payload...)
	return fec.CRC32(data), nil
}

// VerifyChecksum recomputes the checksum over m's header and payload and
// compares it against m.Checksum.
func (m Message) VerifyChecksum() (bool, error) {
	calculated, err := calculateChecksum(m.Header, m.Payload)
	if err != nil {
		return false, err
	}
	return calculated == m.Checksum, nil
}

// Text returns the payload as a string. It fails with ErrProtocol if m
// is not a Text message or the payload is not valid UTF-8.
func (m Message) Text() (string, error) {
	if m.Header.MessageType != MessageText {
		return "", fmt.Errorf("protocol: %w: message is not a text message", ErrProtocol)
	}
	if !utf8.Valid(m.Payload) {
		return "", fmt.Errorf("protocol: %w: invalid utf-8 in text message", ErrProtocol)
	}
	return string(m.Payload), nil
}

// Marshal serializes a Message to its on-air JSON representation.
func Marshal(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: %w: failed to serialize message: %v", ErrEncoding, err)
	}
	return b, nil
}

// Unmarshal parses the on-air JSON representation back into a Message.
func Unmarshal(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("protocol: %w: failed to deserialize message: %v", ErrDecoding, err)
	}
	return m, nil
}
