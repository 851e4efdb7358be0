package modem

import (
	"errors"
	"testing"

	"github.com/ajhager/ultramodem/internal/protocol"
)

func TestModulationConfig_Derived(t *testing.T) {
	cfg := DefaultModulationConfig()

	if sps := cfg.SamplesPerSymbol(); sps != 441 {
		t.Errorf("SamplesPerSymbol() = %d, want 441", sps)
	}
	if rmp := cfg.RampSamples(); rmp != 88 {
		t.Errorf("RampSamples() = %d, want 88", rmp)
	}
	if fft := cfg.FFTSize(); fft != 512 {
		t.Errorf("FFTSize() = %d, want 512", fft)
	}
}

func TestModulationConfig_Validate_Default(t *testing.T) {
	cfg := DefaultModulationConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestModulationConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  ModulationConfig
	}{
		{
			name: "sample rate too low",
			cfg:  ModulationConfig{SampleRate: 100, Freq0: 1000, Freq1: 2000, SymbolDuration: 0.01, RampDuration: 0.002},
		},
		{
			name: "freq0 above freq1",
			cfg:  ModulationConfig{SampleRate: 44100, Freq0: 20000, Freq1: 18000, SymbolDuration: 0.01, RampDuration: 0.002},
		},
		{
			name: "above nyquist",
			cfg:  ModulationConfig{SampleRate: 8000, Freq0: 3000, Freq1: 5000, SymbolDuration: 0.01, RampDuration: 0.002},
		},
		{
			name: "zero symbol duration",
			cfg:  ModulationConfig{SampleRate: 44100, Freq0: 18000, Freq1: 20000, SymbolDuration: 0, RampDuration: 0},
		},
		{
			name: "ramp too long",
			cfg:  ModulationConfig{SampleRate: 44100, Freq0: 18000, Freq1: 20000, SymbolDuration: 0.01, RampDuration: 0.006},
		},
		{
			name: "too few samples per symbol",
			cfg:  ModulationConfig{SampleRate: 8000, Freq0: 1000, Freq1: 2000, SymbolDuration: 0.0001, RampDuration: 0},
		},
		{
			name: "bins too close together",
			cfg:  ModulationConfig{SampleRate: 44100, Freq0: 18000, Freq1: 18050, SymbolDuration: 0.01, RampDuration: 0.002},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, protocol.ErrConfig) {
				t.Errorf("error %v does not wrap ErrConfig", err)
			}
		})
	}
}
