package config

import (
	"errors"
	"testing"

	"github.com/ajhager/ultramodem/internal/protocol"
)

func TestSettings_ValidateDefault(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("DefaultSettings().Validate() = %v, want nil", err)
	}
}

func TestSettings_ValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Settings)
	}{
		{"freq0 too low", func(s *Settings) { s.Freq0 = 50 }},
		{"freq1 too high", func(s *Settings) { s.Freq1 = 30000 }},
		{"sample rate too low", func(s *Settings) { s.SampleRate = 1000 }},
		{"sample rate too high", func(s *Settings) { s.SampleRate = 300000 }},
		{"threshold negative", func(s *Settings) { s.Threshold = -0.1 }},
		{"threshold over one", func(s *Settings) { s.Threshold = 1.1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mut(&s)
			err := s.Validate()
			if !errors.Is(err, protocol.ErrConfig) {
				t.Fatalf("Validate() = %v, want ErrConfig", err)
			}
		})
	}
}
