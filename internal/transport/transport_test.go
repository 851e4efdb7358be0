package transport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajhager/ultramodem/internal/protocol"
)

// channel is an in-memory loopback the transport tests drive instead of
// real audio hardware: messages sent by one side land in the other
// side's inbox.
type channel struct {
	mu    sync.Mutex
	inbox []protocol.Message
}

func (c *channel) send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inbox = append(c.inbox, msg)
	return nil
}

func (c *channel) receive(timeout time.Duration) (protocol.Message, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.inbox) > 0 {
			msg := c.inbox[0]
			c.inbox = c.inbox[1:]
			c.mu.Unlock()
			return msg, nil
		}
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	return protocol.Message{}, errors.New("timeout")
}

func TestTransport_SendText_AckedImmediately(t *testing.T) {
	toB := &channel{}
	toA := &channel{}
	a := New(toB.send, toA.receive)
	b := New(toA.send, toB.receive)

	go func() {
		msg, err := b.ReceiveOne(time.Second)
		if !assert.NoError(t, err) {
			return
		}
		text, err := msg.Text()
		assert.NoError(t, err)
		assert.Equal(t, "hello", text)
	}()

	require.NoError(t, a.SendText("hello"))

	sent, _, retries, errs := a.Stats()
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, retries)
	assert.Equal(t, 0, errs)
}

func TestTransport_SendText_RetriesOnMissingAck(t *testing.T) {
	toNowhere := &channel{}
	neverReplies := func(timeout time.Duration) (protocol.Message, error) {
		time.Sleep(timeout)
		return protocol.Message{}, errors.New("nothing ever arrives")
	}
	a := New(toNowhere.send, neverReplies)

	start := time.Now()
	err := a.SendText("hello")
	elapsed := time.Since(start)

	require.ErrorIs(t, err, protocol.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, MaxRetries*AckTimeout)

	_, _, retries, errs := a.Stats()
	assert.Equal(t, MaxRetries, retries)
	assert.Equal(t, 1, errs)
}

func TestTransport_SendText_IgnoresAckForWrongSequence(t *testing.T) {
	toB := &channel{}
	toA := &channel{}
	a := New(toB.send, toA.receive)

	go func() {
		// Drain the text message, then ack the wrong sequence number
		// once before acking the right one.
		_, err := toB.receive(time.Second)
		if !assert.NoError(t, err) {
			return
		}
		wrongAck, _ := protocol.NewAck(999)
		toA.send(wrongAck)

		rightAck, _ := protocol.NewAck(0)
		toA.send(rightAck)
	}()

	assert.NoError(t, a.SendText("hello"))
}

func TestTransport_Listen_AutoAcksText(t *testing.T) {
	toB := &channel{}
	toA := &channel{}
	a := New(toB.send, toA.receive)
	b := New(toA.send, toB.receive)

	msg, err := protocol.NewText("ping", 7)
	require.NoError(t, err)
	require.NoError(t, toB.send(msg))

	delivered := make(chan protocol.Message, 1)
	stop := make(chan struct{})
	go func() {
		assert.NoError(t, b.Listen(func(m protocol.Message) { delivered <- m }, stop))
	}()

	select {
	case got := <-delivered:
		assert.Equal(t, uint32(7), got.Header.SequenceNumber)
	case <-time.After(time.Second):
		t.Fatal("message never delivered")
	}

	ack, err := a.ReceiveOne(time.Second)
	require.NoError(t, err)
	assert.Equal(t, protocol.MessageAck, ack.Header.MessageType)
	assert.Equal(t, uint32(7), ack.Header.SequenceNumber)

	close(stop)
}
