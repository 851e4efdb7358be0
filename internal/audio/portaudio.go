package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// DefaultFramesPerBuffer is the per-Read/per-Write chunk size of the
// blocking portaudio streams, used when a caller doesn't need to tune it. It has no relationship to symbol
// length; unlike the OFDM predecessor this package streams arbitrary-
// length PCM through a Buffer rather than symbol-sized frames.
const DefaultFramesPerBuffer = 1024

const numChannels = 1

// AudioIO wraps PortAudio for mono float32 input/output at a caller-
// specified sample rate.
type AudioIO struct {
	sampleRate      float64
	framesPerBuffer int
	inputStream     *portaudio.Stream
	outputStream    *portaudio.Stream
	inputBuf        []float32
	outputBuf       []float32
	mu              sync.Mutex
}

// Init initializes the PortAudio library. Must be called once before
// any AudioIO is opened.
func Init() error {
	return portaudio.Initialize()
}

// Terminate releases PortAudio library resources.
func Terminate() error {
	return portaudio.Terminate()
}

// NewAudioIO creates an AudioIO for the given sample rate. framesPerBuffer
// controls the blocking stream's chunk size; pass 0 for DefaultFramesPerBuffer.
func NewAudioIO(sampleRate int, framesPerBuffer int) *AudioIO {
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}
	return &AudioIO{
		sampleRate:      float64(sampleRate),
		framesPerBuffer: framesPerBuffer,
		inputBuf:        make([]float32, framesPerBuffer),
		outputBuf:       make([]float32, framesPerBuffer),
	}
}

// OpenInput opens the default mono input stream.
func (a *AudioIO) OpenInput() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stream, err := portaudio.OpenDefaultStream(
		numChannels, 0,
		a.sampleRate, a.framesPerBuffer,
		a.inputBuf,
	)
	if err != nil {
		return fmt.Errorf("audio: open input stream: %w", err)
	}
	a.inputStream = stream
	return nil
}

// OpenOutput opens the default mono output stream.
func (a *AudioIO) OpenOutput() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stream, err := portaudio.OpenDefaultStream(
		0, numChannels,
		a.sampleRate, a.framesPerBuffer,
		a.outputBuf,
	)
	if err != nil {
		return fmt.Errorf("audio: open output stream: %w", err)
	}
	a.outputStream = stream
	return nil
}

// OpenDuplex opens separate input and output streams for simultaneous I/O.
func (a *AudioIO) OpenDuplex() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	inStream, err := portaudio.OpenDefaultStream(numChannels, 0, a.sampleRate, a.framesPerBuffer, a.inputBuf)
	if err != nil {
		return fmt.Errorf("audio: open input stream: %w", err)
	}
	a.inputStream = inStream

	outStream, err := portaudio.OpenDefaultStream(0, numChannels, a.sampleRate, a.framesPerBuffer, a.outputBuf)
	if err != nil {
		inStream.Close()
		return fmt.Errorf("audio: open output stream: %w", err)
	}
	a.outputStream = outStream
	return nil
}

// StartInput starts the input stream.
func (a *AudioIO) StartInput() error {
	if a.inputStream == nil {
		return fmt.Errorf("audio: input stream not opened")
	}
	return a.inputStream.Start()
}

// StartOutput starts the output stream.
func (a *AudioIO) StartOutput() error {
	if a.outputStream == nil {
		return fmt.Errorf("audio: output stream not opened")
	}
	return a.outputStream.Start()
}

// Read blocks for one buffer's worth of captured samples and returns an
// owned copy.
func (a *AudioIO) Read() ([]float32, error) {
	if a.inputStream == nil {
		return nil, fmt.Errorf("audio: input stream not opened")
	}
	if err := a.inputStream.Read(); err != nil {
		return nil, fmt.Errorf("audio: read: %w", err)
	}
	out := make([]float32, len(a.inputBuf))
	copy(out, a.inputBuf)
	return out, nil
}

// Write plays exactly one buffer's worth of samples, zero-padding if
// samples is shorter than the stream's frame size.
func (a *AudioIO) Write(samples []float32) error {
	if a.outputStream == nil {
		return fmt.Errorf("audio: output stream not opened")
	}
	for i := range a.outputBuf {
		a.outputBuf[i] = 0
	}
	copy(a.outputBuf, samples)
	return a.outputStream.Write()
}

// WriteSamples plays an arbitrarily long buffer, split into
// framesPerBuffer-sized chunks.
func (a *AudioIO) WriteSamples(samples []float32) error {
	for i := 0; i < len(samples); i += a.framesPerBuffer {
		end := i + a.framesPerBuffer
		if end > len(samples) {
			end = len(samples)
		}
		if err := a.Write(samples[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// StreamInto reads continuously from the input stream and appends every
// captured buffer to buf, until stop is closed. It is meant to run in
// its own goroutine, feeding the thread-safe Buffer that a consumer
// goroutine reads from.
func (a *AudioIO) StreamInto(buf *Buffer, stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		samples, err := a.Read()
		if err != nil {
			return err
		}
		buf.Append(samples)
	}
}

// StopInput stops the input stream.
func (a *AudioIO) StopInput() error {
	if a.inputStream == nil {
		return nil
	}
	return a.inputStream.Stop()
}

// StopOutput stops the output stream.
func (a *AudioIO) StopOutput() error {
	if a.outputStream == nil {
		return nil
	}
	return a.outputStream.Stop()
}

// Close closes all open streams.
func (a *AudioIO) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.inputStream != nil {
		if err := a.inputStream.Close(); err != nil {
			errs = append(errs, err)
		}
		a.inputStream = nil
	}
	if a.outputStream != nil {
		if err := a.outputStream.Close(); err != nil {
			errs = append(errs, err)
		}
		a.outputStream = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("audio: close errors: %v", errs)
	}
	return nil
}
