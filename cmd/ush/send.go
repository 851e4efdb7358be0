package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ajhager/ultramodem/internal/modem"
	"github.com/ajhager/ultramodem/internal/protocol"
	"github.com/ajhager/ultramodem/internal/transport"
	"github.com/ajhager/ultramodem/internal/wavfile"
)

func runSend(args []string) error {
	fs := pflag.NewFlagSet("send", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	repeat := fs.IntP("repeat", "r", 1, "Repeat the message N times")
	saveWav := fs.String("save-wav", "", "Save the encoded audio to a WAV file instead of playing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("ush send: message argument required")
	}
	message := fs.Arg(0)

	settings := g.settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	cfg := settings.ModulationConfig()

	msg, err := protocol.NewText(message, 0)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if *saveWav != "" {
		frameBytes, err := protocol.EncodeMessage(msg)
		if err != nil {
			return err
		}
		mod := modem.NewModulator(cfg)
		samples := mod.EncodeBytes(frameBytes)
		samples = withSilenceBetweenRepeats(samples, *repeat, cfg.SampleRate)

		if err := wavfile.Save(*saveWav, samples, cfg.SampleRate); err != nil {
			return err
		}
		log.Info("saved encoded audio", "path", *saveWav)
		return nil
	}

	return withAudio(func() error {
		channel := transport.NewAudioChannel(cfg)
		if err := channel.OpenOutput(); err != nil {
			return err
		}
		defer channel.Close()

		for i := 0; i < *repeat; i++ {
			if i > 0 {
				time.Sleep(500 * time.Millisecond)
			}
			if err := channel.Send(msg); err != nil {
				return fmt.Errorf("play message: %w", err)
			}
		}
		log.Info("message sent", "bytes", len(message), "repeats", *repeat)
		return nil
	})
}

func withSilenceBetweenRepeats(samples []float32, repeat, sampleRate int) []float32 {
	if repeat <= 1 {
		return samples
	}
	silence := make([]float32, sampleRate/2)
	full := make([]float32, 0, (len(samples)+len(silence))*repeat)
	for i := 0; i < repeat; i++ {
		if i > 0 {
			full = append(full, silence...)
		}
		full = append(full, samples...)
	}
	return full
}
