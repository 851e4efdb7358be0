// Package transport implements a stop-and-wait ARQ session on top of
// the message schema and streaming decoder in internal/protocol, and
// the BFSK modem in internal/modem. It owns the audio-callback/decoder
// boundary: a capture goroutine appends samples to a shared buffer, and
// the transport's own goroutine drains it, detects signal onset, and
// feeds the demodulator and decoder.
package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ajhager/ultramodem/internal/protocol"
)

// ARQ timing. AckTimeout and TurnaroundDelay are generous relative to a
// 10ms symbol because the acoustic channel round-trip includes a full
// frame's playback time, not just propagation delay.
const (
	AckTimeout      = 2 * time.Second
	MaxRetries      = 3
	TurnaroundDelay = 150 * time.Millisecond
)

// State is the ARQ state machine's current phase.
type State int

// The four ARQ phases.
const (
	StateIdle State = iota
	StateSending
	StateWaitingAck
	StateReceiving
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateWaitingAck:
		return "waiting_ack"
	case StateReceiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// Sender plays a message over the acoustic channel.
type Sender func(msg protocol.Message) error

// Receiver waits up to timeout for the next validated message coming off
// the channel.
type Receiver func(timeout time.Duration) (protocol.Message, error)

// Transport implements stop-and-wait ARQ for Text messages: SendText
// retries until an Ack with a matching sequence number arrives or
// MaxRetries is exhausted. Listen runs the receive side, auto-
// acknowledging inbound Text messages before delivering them.
type Transport struct {
	send    Sender
	receive Receiver
	encoder *protocol.Encoder

	mu    sync.Mutex
	state State

	sent, received, retries, errors int

	// OnStateChange, when set, is invoked on every ARQ state transition.
	OnStateChange func(State)
	logger        *log.Logger
}

// New constructs a Transport around the given send/receive functions.
func New(send Sender, receive Receiver) *Transport {
	return &Transport{
		send:    send,
		receive: receive,
		encoder: protocol.NewEncoder(),
		logger:  log.Default().With("component", "transport"),
	}
}

// SendText sends text reliably: it retries modulation and playback up to
// MaxRetries times until an Ack for the assigned sequence number is
// observed.
func (t *Transport) SendText(text string) error {
	seq := t.encoder.NextSequenceNumber()
	msg, err := protocol.NewText(text, seq)
	if err != nil {
		return err
	}
	return t.sendReliable(msg)
}

// SendFile sends a single File-type chunk reliably, using the given
// sequence number (file transfer owns its own sequencing independent of
// the encoder's text counter).
func (t *Transport) SendFile(chunk []byte, seq uint32) error {
	msg, err := protocol.NewFile(chunk, seq)
	if err != nil {
		return err
	}
	return t.sendReliable(msg)
}

func (t *Transport) sendReliable(msg protocol.Message) error {
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			t.logger.Warn("retrying", "attempt", attempt, "max", MaxRetries, "seq", msg.Header.SequenceNumber)
			t.mu.Lock()
			t.retries++
			t.mu.Unlock()
		}

		t.setState(StateSending)
		if err := t.send(msg); err != nil {
			t.mu.Lock()
			t.errors++
			t.mu.Unlock()
			return fmt.Errorf("transport: send: %w", err)
		}
		t.mu.Lock()
		t.sent++
		t.mu.Unlock()

		time.Sleep(TurnaroundDelay)
		t.setState(StateWaitingAck)

		ack, err := t.receive(AckTimeout)
		if err != nil {
			t.logger.Warn("ack timeout", "seq", msg.Header.SequenceNumber, "err", err)
			continue
		}
		if ack.Header.MessageType == protocol.MessageAck && ack.Header.SequenceNumber == msg.Header.SequenceNumber {
			if msg.Header.MessageType == protocol.MessageText {
				t.encoder.AdvanceSequence()
			}
			t.setState(StateIdle)
			return nil
		}
		t.logger.Warn("unexpected response while waiting for ack",
			"type", ack.Header.MessageType, "seq", ack.Header.SequenceNumber, "want_seq", msg.Header.SequenceNumber)
	}

	t.mu.Lock()
	t.errors++
	t.mu.Unlock()
	t.setState(StateIdle)
	return fmt.Errorf("transport: %w: max retries exceeded for seq=%d", protocol.ErrTimeout, msg.Header.SequenceNumber)
}

// Listen blocks, receiving messages until stop is closed. Every
// delivered message has already passed CRC verification (the decoder
// silently drops the rest). Text and File messages are auto-
// acknowledged before being handed to deliver; other message types are
// delivered as-is.
func (t *Transport) Listen(deliver func(protocol.Message), stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		msg, ok := t.receiveOne(AckTimeout)
		if !ok {
			continue
		}
		deliver(msg)
	}
}

// ReceiveOne waits up to timeout for a single message, auto-
// acknowledging Text and File types, and returns it. Callers that need
// a synchronous request/response shape (such as file transfer) use
// this instead of Listen.
func (t *Transport) ReceiveOne(timeout time.Duration) (protocol.Message, error) {
	msg, ok := t.receiveOne(timeout)
	if !ok {
		return protocol.Message{}, fmt.Errorf("transport: %w: no message within %s", protocol.ErrTimeout, timeout)
	}
	return msg, nil
}

func (t *Transport) receiveOne(timeout time.Duration) (protocol.Message, bool) {
	t.setState(StateReceiving)
	msg, err := t.receive(timeout)
	if err != nil {
		t.setState(StateIdle)
		return protocol.Message{}, false
	}
	t.mu.Lock()
	t.received++
	t.mu.Unlock()

	if msg.Header.MessageType == protocol.MessageText || msg.Header.MessageType == protocol.MessageFile {
		ack, err := protocol.NewAck(msg.Header.SequenceNumber)
		if err != nil {
			t.logger.Warn("failed to build ack", "err", err)
		} else {
			time.Sleep(TurnaroundDelay)
			t.setState(StateSending)
			if err := t.send(ack); err != nil {
				t.logger.Warn("failed to send ack", "seq", msg.Header.SequenceNumber, "err", err)
			}
		}
	}

	t.setState(StateIdle)
	return msg, true
}

func (t *Transport) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
	if t.OnStateChange != nil {
		t.OnStateChange(s)
	}
}

// Stats reports cumulative counters since construction or the last Reset.
func (t *Transport) Stats() (sent, received, retries, errors int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent, t.received, t.retries, t.errors
}

// Reset clears counters and returns the transport to StateIdle. It does
// not reset the encoder's sequence counter.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIdle
	t.sent, t.received, t.retries, t.errors = 0, 0, 0, 0
}
