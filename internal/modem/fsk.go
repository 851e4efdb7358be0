package modem

import (
	"fmt"
	"math"

	"github.com/ajhager/ultramodem/internal/protocol"
)

// peakAmplitude is the maximum modulator output level, held well under
// full scale to give headroom for speaker drivers.
const peakAmplitude = 0.3

// powerFloor is the minimum bin power below which a symbol is treated as
// carrying no signal at all.
const powerFloor = 1e-3

// binSearchRadius is how many bins to either side of the target bin the
// demodulator scans, to absorb spectral leakage and sender/receiver
// clock drift.
const binSearchRadius = 3

// Modulator turns bits into BFSK audio samples.
type Modulator struct {
	cfg ModulationConfig
	sps int
	rmp int
}

// NewModulator constructs a Modulator for the given configuration. The
// configuration must already be valid; callers should call Validate
// first.
func NewModulator(cfg ModulationConfig) *Modulator {
	return &Modulator{
		cfg: cfg,
		sps: cfg.SamplesPerSymbol(),
		rmp: cfg.RampSamples(),
	}
}

// EncodeBits renders a sequence of bits (0/1, one byte each) into audio
// samples. Only the first and last symbol of the whole sequence are
// ramped; interior symbols are not.
func (m *Modulator) EncodeBits(bits []byte) []float32 {
	samples := make([]float32, len(bits)*m.sps)
	for i, bit := range bits {
		freq := m.cfg.Freq0
		if bit != 0 {
			freq = m.cfg.Freq1
		}
		m.renderSymbol(samples[i*m.sps:(i+1)*m.sps], freq, i == 0, i == len(bits)-1)
	}
	return samples
}

// EncodeBytes expands data into MSB-first bits and modulates them.
func (m *Modulator) EncodeBytes(data []byte) []float32 {
	return m.EncodeBits(bytesToBits(data))
}

func (m *Modulator) renderSymbol(dst []float32, freq float64, isFirst, isLast bool) {
	for i := range dst {
		t := float64(i) / float64(m.cfg.SampleRate)
		amp := math.Sin(2 * math.Pi * freq * t)

		if isFirst && i < m.rmp {
			amp *= float64(i) / float64(m.rmp)
		}
		if isLast && i >= len(dst)-m.rmp {
			amp *= float64(len(dst)-i) / float64(m.rmp)
		}

		dst[i] = float32(amp * peakAmplitude)
	}
}

// Demodulator recovers bits from BFSK audio samples.
type Demodulator struct {
	cfg     ModulationConfig
	sps     int
	fftSize int
	bin0    int
	bin1    int
	scratch []complex128
}

// NewDemodulator constructs a Demodulator for the given configuration.
func NewDemodulator(cfg ModulationConfig) *Demodulator {
	fftSize := cfg.FFTSize()
	return &Demodulator{
		cfg:     cfg,
		sps:     cfg.SamplesPerSymbol(),
		fftSize: fftSize,
		bin0:    binForFreq(cfg.Freq0, fftSize, cfg.SampleRate),
		bin1:    binForFreq(cfg.Freq1, fftSize, cfg.SampleRate),
		scratch: make([]complex128, fftSize),
	}
}

// DecodeBits recovers one bit per samples_per_symbol-sized window.
func (d *Demodulator) DecodeBits(samples []float32) ([]byte, error) {
	if len(samples)%d.sps != 0 {
		return nil, fmt.Errorf("modem: %w: sample length %d is not a multiple of symbol length %d", protocol.ErrDecoding, len(samples), d.sps)
	}

	numSymbols := len(samples) / d.sps
	bits := make([]byte, numSymbols)
	for i := 0; i < numSymbols; i++ {
		bit, err := d.decodeSymbol(samples[i*d.sps : (i+1)*d.sps])
		if err != nil {
			return nil, err
		}
		bits[i] = bit
	}
	return bits, nil
}

// DecodeBytes recovers bits and packs them MSB-first into bytes.
func (d *Demodulator) DecodeBytes(samples []float32) ([]byte, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	bits, err := d.DecodeBits(samples)
	if err != nil {
		return nil, err
	}
	if len(bits)%8 != 0 {
		return nil, fmt.Errorf("modem: %w: bit count %d is not a multiple of 8", protocol.ErrDecoding, len(bits))
	}

	return bitsToBytes(bits), nil
}

func (d *Demodulator) decodeSymbol(samples []float32) (byte, error) {
	for i := range d.scratch {
		if i < len(samples) {
			d.scratch[i] = complex(float64(samples[i]), 0)
		} else {
			d.scratch[i] = 0
		}
	}

	spectrum := FFT(d.scratch)

	p0 := maxPowerNear(spectrum, d.bin0, binSearchRadius)
	p1 := maxPowerNear(spectrum, d.bin1, binSearchRadius)

	if p0 < powerFloor && p1 < powerFloor {
		return 0, fmt.Errorf("modem: %w: no signal detected in symbol", protocol.ErrDecoding)
	}

	if p1 > p0 {
		return 1, nil
	}
	return 0, nil
}

// WindowSpectrum holds the per-bin power measurements a debug report
// cares about for a single analysis window: how much energy sits at
// each carrier frequency versus the window's loudest bin overall.
type WindowSpectrum struct {
	Freq0Power float64
	Freq1Power float64
	PeakPower  float64
	PeakBin    int
}

// AnalyzeWindow runs the same FFT-and-bin-power measurement the
// demodulator uses per symbol, but exposes the raw powers instead of
// collapsing them to a single decoded bit. Intended for diagnostics
// (cmd/ush debug) rather than the decode path.
func AnalyzeWindow(samples []float32, cfg ModulationConfig) WindowSpectrum {
	fftSize := cfg.FFTSize()
	bin0 := binForFreq(cfg.Freq0, fftSize, cfg.SampleRate)
	bin1 := binForFreq(cfg.Freq1, fftSize, cfg.SampleRate)

	scratch := make([]complex128, fftSize)
	for i := range scratch {
		if i < len(samples) {
			scratch[i] = complex(float64(samples[i]), 0)
		}
	}
	spectrum := FFT(scratch)

	peakBin := 0
	peakPower := 0.0
	for k := 0; k < fftSize/2; k++ {
		re, im := real(spectrum[k]), imag(spectrum[k])
		p := re*re + im*im
		if p > peakPower {
			peakPower = p
			peakBin = k
		}
	}

	return WindowSpectrum{
		Freq0Power: maxPowerNear(spectrum, bin0, binSearchRadius),
		Freq1Power: maxPowerNear(spectrum, bin1, binSearchRadius),
		PeakPower:  peakPower,
		PeakBin:    peakBin,
	}
}

func maxPowerNear(spectrum []complex128, bin, radius int) float64 {
	lo := bin - radius
	if lo < 0 {
		lo = 0
	}
	hi := bin + radius
	if hi > len(spectrum)-1 {
		hi = len(spectrum) - 1
	}

	max := 0.0
	for k := lo; k <= hi; k++ {
		re, im := real(spectrum[k]), imag(spectrum[k])
		p := re*re + im*im
		if p > max {
			max = p
		}
	}
	return max
}

func bytesToBits(data []byte) []byte {
	bits := make([]byte, len(data)*8)
	for i, b := range data {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = (b >> uint(7-j)) & 1
		}
	}
	return bits
}

func bitsToBytes(bits []byte) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		var b byte
		for j := 0; j < 8; j++ {
			b = (b << 1) | (bits[i*8+j] & 1)
		}
		out[i] = b
	}
	return out
}
