package modem

import (
	"bytes"
	"testing"
)

func TestModulator_Length(t *testing.T) {
	cfg := DefaultModulationConfig()
	mod := NewModulator(cfg)

	data := []byte("Hi")
	samples := mod.EncodeBytes(data)

	want := 8 * len(data) * cfg.SamplesPerSymbol()
	if len(samples) != want {
		t.Errorf("len(samples) = %d, want %d", len(samples), want)
	}
	if want != 7056 {
		t.Fatalf("sanity check failed: expected 7056 samples for \"Hi\" at defaults, computed %d", want)
	}
}

func TestModulator_PeakAmplitude(t *testing.T) {
	cfg := DefaultModulationConfig()
	mod := NewModulator(cfg)

	samples := mod.EncodeBytes([]byte("test payload"))
	for i, s := range samples {
		if s > peakAmplitude+1e-6 || s < -peakAmplitude-1e-6 {
			t.Fatalf("sample %d = %v exceeds peak amplitude %v", i, s, peakAmplitude)
		}
	}
}

func TestModulator_RampContinuity(t *testing.T) {
	cfg := DefaultModulationConfig()
	mod := NewModulator(cfg)

	samples := mod.EncodeBytes([]byte("x"))
	rmp := cfg.RampSamples()

	maxEdge := peakAmplitude * (1.0 / float64(rmp))
	if a := float64(samples[0]); a > maxEdge || a < -maxEdge {
		t.Errorf("first sample %v exceeds ramp bound %v", a, maxEdge)
	}
	if a := float64(samples[len(samples)-1]); a > maxEdge || a < -maxEdge {
		t.Errorf("last sample %v exceeds ramp bound %v", a, maxEdge)
	}
}

func TestEncodeDecodeBits_RoundTrip(t *testing.T) {
	cfg := DefaultModulationConfig()
	mod := NewModulator(cfg)
	demod := NewDemodulator(cfg)

	bits := []byte{1, 0, 1, 0, 1, 1, 0, 0}
	samples := mod.EncodeBits(bits)

	decoded, err := demod.DecodeBits(samples)
	if err != nil {
		t.Fatalf("DecodeBits: %v", err)
	}
	if !bytes.Equal(decoded, bits) {
		t.Errorf("decoded bits = %v, want %v", decoded, bits)
	}
}

func TestEncodeDecodeBytes_RoundTrip(t *testing.T) {
	cfg := DefaultModulationConfig()
	mod := NewModulator(cfg)
	demod := NewDemodulator(cfg)

	original := []byte("Hello, World!")
	samples := mod.EncodeBytes(original)

	decoded, err := demod.DecodeBytes(samples)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded = %q, want %q", decoded, original)
	}
}

func TestEncodeDecodeBytes_Unicode(t *testing.T) {
	cfg := DefaultModulationConfig()
	mod := NewModulator(cfg)
	demod := NewDemodulator(cfg)

	original := []byte("Hello 世界")
	samples := mod.EncodeBytes(original)

	decoded, err := demod.DecodeBytes(samples)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("decoded = %q, want %q", decoded, original)
	}
}

func TestDecodeBytes_EmptyInput(t *testing.T) {
	cfg := DefaultModulationConfig()
	demod := NewDemodulator(cfg)

	decoded, err := demod.DecodeBytes(nil)
	if err != nil {
		t.Fatalf("DecodeBytes(nil): %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected empty output, got %v", decoded)
	}
}

func TestDecodeBits_NotMultipleOfSymbolLength(t *testing.T) {
	cfg := DefaultModulationConfig()
	demod := NewDemodulator(cfg)

	samples := make([]float32, cfg.SamplesPerSymbol()+1)
	if _, err := demod.DecodeBits(samples); err == nil {
		t.Fatal("expected error for misaligned sample length, got nil")
	}
}

func TestDecodeBytes_NotByteAligned(t *testing.T) {
	cfg := DefaultModulationConfig()
	mod := NewModulator(cfg)
	demod := NewDemodulator(cfg)

	bits := []byte{1, 0, 1}
	samples := mod.EncodeBits(bits)

	if _, err := demod.DecodeBytes(samples); err == nil {
		t.Fatal("expected error for non-byte-aligned bit count, got nil")
	}
}

func TestDecodeSymbol_NoSignal(t *testing.T) {
	cfg := DefaultModulationConfig()
	demod := NewDemodulator(cfg)

	silence := make([]float32, cfg.SamplesPerSymbol())
	if _, err := demod.DecodeBits(silence); err == nil {
		t.Fatal("expected no-signal error for silence, got nil")
	}
}
