package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/pflag"

	"github.com/ajhager/ultramodem/internal/audio"
	"github.com/ajhager/ultramodem/internal/modem"
	"github.com/ajhager/ultramodem/internal/protocol"
	"github.com/ajhager/ultramodem/internal/transport"
)

func runDevices(args []string) error {
	fs := pflag.NewFlagSet("devices", pflag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withAudio(func() error {
		return audio.PrintDevices()
	})
}

func runTest(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("ush test: expected a subcommand (devices, loopback, generate, noise)")
	}
	switch args[0] {
	case "devices":
		return runDevices(args[1:])
	case "loopback":
		return runTestLoopback(args[1:])
	case "generate":
		return runTestGenerate(args[1:])
	case "noise":
		return runTestNoise(args[1:])
	default:
		return fmt.Errorf("ush test: unknown subcommand %q", args[0])
	}
}

func runTestLoopback(args []string) error {
	fs := pflag.NewFlagSet("test loopback", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	message := "loopback test"
	if fs.NArg() > 0 {
		message = fs.Arg(0)
	}

	settings := g.settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	cfg := settings.ModulationConfig()

	fmt.Printf("Testing loopback with message: %q\n", message)

	msg, err := protocol.NewText(message, 0)
	if err != nil {
		return err
	}
	frameBytes, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}

	mod := modem.NewModulator(cfg)
	samples := mod.EncodeBytes(frameBytes)

	demod := modem.NewDemodulator(cfg)
	decodedBytes, err := demod.DecodeBytes(samples)
	if err != nil {
		fmt.Println("x Loopback test FAILED - demodulation error:", err)
		return nil
	}

	decoder := protocol.NewDecoder()
	messages := decoder.Feed(decodedBytes)
	if len(messages) == 0 {
		fmt.Println("x Loopback test FAILED - no message decoded")
		return nil
	}

	decodedText, err := messages[0].Text()
	if err != nil {
		fmt.Println("x Loopback test FAILED -", err)
		return nil
	}

	fmt.Printf("Original: %q\n", message)
	fmt.Printf("Decoded:  %q\n", decodedText)
	if decodedText == message {
		fmt.Println("Loopback test PASSED")
	} else {
		fmt.Println("x Loopback test FAILED")
	}
	return nil
}

func runTestGenerate(args []string) error {
	fs := pflag.NewFlagSet("test generate", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	duration := fs.Float64P("duration", "d", 2.0, "Duration in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("ush test generate: frequency argument required")
	}
	var frequency float64
	if _, err := fmt.Sscanf(fs.Arg(0), "%f", &frequency); err != nil {
		return fmt.Errorf("ush test generate: invalid frequency %q", fs.Arg(0))
	}

	settings := g.settings()
	cfg := settings.ModulationConfig()

	fmt.Printf("Generating %gHz tone for %.1fs\n", frequency, *duration)
	n := int(float64(cfg.SampleRate) * *duration)
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(cfg.SampleRate)
		samples[i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.3)
	}

	return withAudio(func() error {
		channel := transport.NewAudioChannel(cfg)
		if err := channel.OpenOutput(); err != nil {
			return err
		}
		defer channel.Close()
		return channel.PlayRaw(samples)
	})
}

func runTestNoise(args []string) error {
	fs := pflag.NewFlagSet("test noise", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	duration := fs.Float64P("duration", "d", 3.0, "Measurement duration in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings := g.settings()
	cfg := settings.ModulationConfig()

	fmt.Printf("Measuring background noise for %.1fs...\n", *duration)

	return withAudio(func() error {
		channel := transport.NewAudioChannel(cfg)
		if err := channel.OpenInput(); err != nil {
			return err
		}
		defer channel.Close()

		time.Sleep(time.Duration(*duration * float64(time.Second)))
		samples := channel.CapturedSamples()

		var sumSq float64
		peak := float32(0)
		for _, s := range samples {
			sumSq += float64(s) * float64(s)
			if abs := float32(math.Abs(float64(s))); abs > peak {
				peak = abs
			}
		}
		rms := math.Sqrt(sumSq / float64(len(samples)))

		fmt.Println("Noise measurement results:")
		fmt.Printf("  RMS level: %.6f (%.1f dB)\n", rms, 20*math.Log10(rms))
		fmt.Printf("  Peak level: %.6f (%.1f dB)\n", peak, 20*math.Log10(float64(peak)))
		fmt.Printf("  Samples recorded: %d\n", len(samples))
		return nil
	})
}
