package modem

import (
	"fmt"
	"math"

	"github.com/ajhager/ultramodem/internal/protocol"
)

// Default carrier/timing parameters, matching the reference implementation.
const (
	DefaultSampleRate     = 44100
	DefaultFreq0          = 18000.0
	DefaultFreq1          = 20000.0
	DefaultSymbolDuration = 0.010
	DefaultRampDuration   = 0.002
)

// ModulationConfig is the shared, immutable parameter set for the
// modulator and demodulator. Two peers must agree on these values (plus
// the message encoding and CRC) to interoperate.
type ModulationConfig struct {
	SampleRate     int
	Freq0          float64
	Freq1          float64
	SymbolDuration float64
	RampDuration   float64
}

// DefaultModulationConfig returns the reference 18/20 kHz, 10ms-symbol
// configuration.
func DefaultModulationConfig() ModulationConfig {
	return ModulationConfig{
		SampleRate:     DefaultSampleRate,
		Freq0:          DefaultFreq0,
		Freq1:          DefaultFreq1,
		SymbolDuration: DefaultSymbolDuration,
		RampDuration:   DefaultRampDuration,
	}
}

// SamplesPerSymbol is the number of PCM samples that make up one bit.
func (c ModulationConfig) SamplesPerSymbol() int {
	return int(float64(c.SampleRate) * c.SymbolDuration)
}

// RampSamples is the length of the amplitude ramp applied at stream
// boundaries.
func (c ModulationConfig) RampSamples() int {
	return int(float64(c.SampleRate) * c.RampDuration)
}

// FFTSize is the smallest power of two at least as large as
// SamplesPerSymbol.
func (c ModulationConfig) FFTSize() int {
	return nextPowerOfTwo(c.SamplesPerSymbol())
}

// Validate checks the invariants in the configuration surface: frequency
// ordering, Nyquist limits, positive durations, and enough bin separation
// between freq_0 and freq_1 for the demodulator's search window to work.
func (c ModulationConfig) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("modem: %w: sample_rate %d out of range [8000, 192000]", protocol.ErrConfig, c.SampleRate)
	}
	if c.Freq0 <= 0 || c.Freq1 <= 0 {
		return fmt.Errorf("modem: %w: frequencies must be positive", protocol.ErrConfig)
	}
	if c.Freq0 >= c.Freq1 {
		return fmt.Errorf("modem: %w: freq_0 (%v) must be less than freq_1 (%v)", protocol.ErrConfig, c.Freq0, c.Freq1)
	}
	nyquist := float64(c.SampleRate) / 2
	if c.Freq0 > nyquist || c.Freq1 > nyquist {
		return fmt.Errorf("modem: %w: frequencies must be below Nyquist (%v Hz)", protocol.ErrConfig, nyquist)
	}
	if c.SymbolDuration <= 0 {
		return fmt.Errorf("modem: %w: symbol_duration must be positive", protocol.ErrConfig)
	}
	if c.RampDuration < 0 || c.RampDuration >= c.SymbolDuration/2 {
		return fmt.Errorf("modem: %w: ramp_duration must be within [0, symbol_duration/2)", protocol.ErrConfig)
	}

	sps := c.SamplesPerSymbol()
	if sps < 8 {
		return fmt.Errorf("modem: %w: samples_per_symbol %d is below the minimum of 8", protocol.ErrConfig, sps)
	}

	fftSize := c.FFTSize()
	if fftSize < sps {
		return fmt.Errorf("modem: %w: fft_size %d smaller than samples_per_symbol %d", protocol.ErrConfig, fftSize, sps)
	}

	b0 := binForFreq(c.Freq0, fftSize, c.SampleRate)
	b1 := binForFreq(c.Freq1, fftSize, c.SampleRate)
	if absInt(b1-b0) < 2 {
		return fmt.Errorf("modem: %w: freq_0 and freq_1 resolve to adjacent FFT bins (%d, %d) at fft_size %d", protocol.ErrConfig, b0, b1, fftSize)
	}

	return nil
}

func binForFreq(freq float64, fftSize, sampleRate int) int {
	return int(math.Round(freq * float64(fftSize) / float64(sampleRate)))
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
