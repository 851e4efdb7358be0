package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ajhager/ultramodem/internal/audio"
	"github.com/ajhager/ultramodem/internal/config"
)

// globalFlags holds the flags every subcommand accepts, mirroring the
// carrier parameters a sender and receiver must agree on out of band.
type globalFlags struct {
	sampleRate int
	freq0      float64
	freq1      float64
	verbose    bool
	quiet      bool
}

func bindGlobalFlags(fs *pflag.FlagSet) *globalFlags {
	defaults := config.DefaultSettings()
	g := &globalFlags{}
	fs.IntVar(&g.sampleRate, "sample-rate", defaults.SampleRate, "Custom sample rate")
	fs.Float64Var(&g.freq0, "freq0", defaults.Freq0, "Frequency for bit '0' in Hz")
	fs.Float64Var(&g.freq1, "freq1", defaults.Freq1, "Frequency for bit '1' in Hz")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "Verbose logging")
	fs.BoolVarP(&g.quiet, "quiet", "q", false, "Suppress non-essential output")
	return g
}

// settings builds the config.Settings for these flags and applies the
// --verbose/--quiet choice to the default logger's level.
func (g *globalFlags) settings() config.Settings {
	switch {
	case g.quiet:
		log.SetLevel(log.WarnLevel)
	case g.verbose:
		log.SetLevel(log.DebugLevel)
	}
	s := config.DefaultSettings()
	s.SampleRate = g.sampleRate
	s.Freq0 = g.freq0
	s.Freq1 = g.freq1
	s.Verbose = g.verbose
	s.Quiet = g.quiet
	return s
}

// withAudio initializes PortAudio, runs fn, and always terminates it
// afterward regardless of fn's outcome.
func withAudio(fn func() error) error {
	if err := audio.Init(); err != nil {
		return err
	}
	defer audio.Terminate()
	return fn()
}
