package audio

import "sync"

// Buffer is the thread-safe sample buffer that bridges a capture
// goroutine (which appends captured samples) and a consumer
// goroutine (which snapshots the buffer and hands an owned copy to the
// demodulator). Neither side holds the lock across a call to another
// component.
type Buffer struct {
	mu      sync.Mutex
	samples []float32
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds captured samples to the buffer. Safe to call from the
// capture goroutine while another goroutine reads.
func (b *Buffer) Append(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, samples...)
}

// Snapshot returns an owned copy of everything currently buffered.
func (b *Buffer) Snapshot() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len reports how many samples are currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Drain removes the first n samples from the buffer. It is used once a
// consumer has processed a prefix of the buffer (e.g. after locating and
// consuming one frame) so the next Snapshot doesn't re-scan old samples.
func (b *Buffer) Drain(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n >= len(b.samples) {
		b.samples = b.samples[:0]
		return
	}
	b.samples = b.samples[n:]
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = b.samples[:0]
}
