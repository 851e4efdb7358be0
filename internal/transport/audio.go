package transport

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ajhager/ultramodem/internal/audio"
	"github.com/ajhager/ultramodem/internal/modem"
	"github.com/ajhager/ultramodem/internal/protocol"
)

// DefaultDetectThreshold is the relative threshold DetectSignalStart
// uses to locate the onset of a transmission: the fraction of the
// loudest window's energy in the scanned buffer that a window must
// exceed to count as signal.
const DefaultDetectThreshold = 0.01

// maxListenSeconds bounds how much audio AudioChannel.Receive will
// accumulate while hunting for one frame before giving up, independent
// of the caller's timeout, so a caller that asks for a very long
// timeout doesn't grow the scan buffer without bound.
const maxListenSeconds = 30

// AudioChannel drives a physical speaker/microphone pair as a
// transport.Sender/transport.Receiver pair. It owns the
// modulate-and-play and capture-detect-demodulate-decode pipeline:
// encoding a Message into PCM on the way out, and turning captured PCM
// back into Messages via signal detection, demodulation, and the
// streaming frame decoder on the way in.
type AudioChannel struct {
	io    *audio.AudioIO
	cfg   modem.ModulationConfig
	mod   *modem.Modulator
	demod *modem.Demodulator

	threshold float64
	decoder   *protocol.Decoder
	buf       *audio.Buffer

	stopCapture chan struct{}
	captureDone chan error

	hasInput  bool
	hasOutput bool

	logger *log.Logger
}

// NewAudioChannel builds an AudioChannel for the given modulation
// parameters. Call OpenDuplex (or OpenInput/OpenOutput individually)
// before using it as a Sender/Receiver.
func NewAudioChannel(cfg modem.ModulationConfig) *AudioChannel {
	return &AudioChannel{
		io:        audio.NewAudioIO(cfg.SampleRate, audio.DefaultFramesPerBuffer),
		cfg:       cfg,
		mod:       modem.NewModulator(cfg),
		demod:     modem.NewDemodulator(cfg),
		threshold: DefaultDetectThreshold,
		decoder:   protocol.NewDecoder(),
		buf:       audio.NewBuffer(),
		logger:    log.Default().With("component", "transport.audio"),
	}
}

// SetDetectThreshold overrides the onset-detection energy threshold.
func (a *AudioChannel) SetDetectThreshold(t float64) {
	a.threshold = t
}

// OpenDuplex opens both input and output and starts the background
// capture goroutine that feeds the shared sample buffer.
func (a *AudioChannel) OpenDuplex() error {
	if err := a.io.OpenDuplex(); err != nil {
		return err
	}
	a.hasInput = true
	a.hasOutput = true
	return a.startCapture()
}

// OpenOutput opens only the output device. Use this for a send-only
// channel with no ACK reception.
func (a *AudioChannel) OpenOutput() error {
	if err := a.io.OpenOutput(); err != nil {
		return err
	}
	a.hasOutput = true
	return nil
}

// OpenInput opens only the input device and starts capture. Use this
// for a listen-only channel with no ACK transmission.
func (a *AudioChannel) OpenInput() error {
	if err := a.io.OpenInput(); err != nil {
		return err
	}
	a.hasInput = true
	return a.startCapture()
}

func (a *AudioChannel) startCapture() error {
	if err := a.io.StartInput(); err != nil {
		return fmt.Errorf("transport: start capture: %w", err)
	}
	a.stopCapture = make(chan struct{})
	a.captureDone = make(chan error, 1)
	go func() {
		a.captureDone <- a.io.StreamInto(a.buf, a.stopCapture)
	}()
	return nil
}

// Close stops capture and releases the underlying audio devices.
func (a *AudioChannel) Close() error {
	if a.stopCapture != nil {
		close(a.stopCapture)
		<-a.captureDone
	}
	return a.io.Close()
}

// Send implements Sender: it frames msg, modulates the frame to PCM,
// and plays it.
func (a *AudioChannel) Send(msg protocol.Message) error {
	if !a.hasOutput {
		return fmt.Errorf("transport: no output device available")
	}

	frameBytes, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}
	samples := a.mod.EncodeBytes(frameBytes)

	if err := a.io.StartOutput(); err != nil {
		return fmt.Errorf("transport: start output: %w", err)
	}
	defer a.io.StopOutput()

	return a.io.WriteSamples(samples)
}

// PlayRaw plays a raw sample buffer without modulation or framing. It
// exists for diagnostics (tone generation) rather than the Message
// pipeline.
func (a *AudioChannel) PlayRaw(samples []float32) error {
	if !a.hasOutput {
		return fmt.Errorf("transport: no output device available")
	}
	if err := a.io.StartOutput(); err != nil {
		return fmt.Errorf("transport: start output: %w", err)
	}
	defer a.io.StopOutput()
	return a.io.WriteSamples(samples)
}

// CapturedSamples returns everything the background capture goroutine
// has buffered so far, without consuming it. It exists for diagnostics
// (noise measurement) rather than the Message pipeline.
func (a *AudioChannel) CapturedSamples() []float32 {
	return a.buf.Snapshot()
}

// Receive implements Receiver: it watches the capture buffer for a
// signal onset, demodulates from that point, and feeds the bytes to
// the streaming decoder until a Message falls out or timeout elapses.
func (a *AudioChannel) Receive(timeout time.Duration) (protocol.Message, error) {
	if !a.hasInput {
		return protocol.Message{}, fmt.Errorf("transport: no input device available")
	}

	deadline := time.Now().Add(timeout)
	maxSamples := maxListenSeconds * a.cfg.SampleRate
	consumed := 0

	for time.Now().Before(deadline) {
		snapshot := a.buf.Snapshot()
		tail := snapshot[consumed:]

		if start := modem.DetectSignalStart(tail, a.threshold); start >= 0 {
			frame := tail[start:]
			symbolBytes := a.cfg.SamplesPerSymbol() * 8
			if usable := (len(frame) / symbolBytes) * symbolBytes; usable > 0 {
				clean := modem.RemoveDCOffset(frame[:usable])
				clean = modem.ApplyAGC(clean, 0.3)

				if decoded, err := a.demod.DecodeBytes(clean); err == nil {
					if msgs := a.decoder.Feed(decoded); len(msgs) > 0 {
						a.buf.Drain(len(snapshot))
						return msgs[0], nil
					}
				}
			}
		}

		if len(snapshot) > maxSamples {
			a.buf.Drain(len(snapshot) - maxSamples/2)
			consumed = 0
		} else {
			consumed = len(snapshot)
		}

		time.Sleep(10 * time.Millisecond)
	}

	return protocol.Message{}, fmt.Errorf("transport: %w: no message within %s", protocol.ErrTimeout, timeout)
}
