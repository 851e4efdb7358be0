// Package config holds the user-facing settings shared across every
// cmd/ush subcommand: sample rate, carrier frequencies, and detection
// threshold, plus the flag-range validation each of them is subject to.
package config

import (
	"fmt"

	"github.com/ajhager/ultramodem/internal/modem"
	"github.com/ajhager/ultramodem/internal/protocol"
)

// Settings is the parsed, validated set of flags common to every
// subcommand. Per-subcommand flags (chunk size, repeat count, and so
// on) live alongside their own command, not here.
type Settings struct {
	SampleRate int
	Freq0      float64
	Freq1      float64
	Threshold  float64
	Verbose    bool
	Quiet      bool
}

// DefaultSettings mirrors the reference CLI's defaults.
func DefaultSettings() Settings {
	return Settings{
		SampleRate: modem.DefaultSampleRate,
		Freq0:      modem.DefaultFreq0,
		Freq1:      modem.DefaultFreq1,
		Threshold:  0.1,
	}
}

// ModulationConfig derives a modem.ModulationConfig from these settings,
// leaving symbol/ramp duration at their reference defaults.
func (s Settings) ModulationConfig() modem.ModulationConfig {
	cfg := modem.DefaultModulationConfig()
	cfg.SampleRate = s.SampleRate
	cfg.Freq0 = s.Freq0
	cfg.Freq1 = s.Freq1
	return cfg
}

// Validate checks the flag-level ranges a user can get wrong from the
// command line, then defers the carrier/timing interaction checks
// (Nyquist, bin separation, and so on) to ModulationConfig.Validate.
func (s Settings) Validate() error {
	if s.Freq0 < 100 || s.Freq0 > 24000 {
		return fmt.Errorf("config: %w: freq_0 %v Hz outside valid range [100, 24000]", protocol.ErrConfig, s.Freq0)
	}
	if s.Freq1 < 100 || s.Freq1 > 24000 {
		return fmt.Errorf("config: %w: freq_1 %v Hz outside valid range [100, 24000]", protocol.ErrConfig, s.Freq1)
	}
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		return fmt.Errorf("config: %w: sample_rate %d Hz outside valid range [8000, 192000]", protocol.ErrConfig, s.SampleRate)
	}
	if s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("config: %w: threshold %v outside valid range [0, 1]", protocol.ErrConfig, s.Threshold)
	}

	if err := s.ModulationConfig().Validate(); err != nil {
		return err
	}
	return nil
}
