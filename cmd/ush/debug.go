package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/pflag"

	"github.com/ajhager/ultramodem/internal/modem"
	"github.com/ajhager/ultramodem/internal/transport"
)

// runDebug captures a short window of audio and reports the signal
// metrics an operator would otherwise only see in a spectrogram: RMS
// and peak level, how much energy sits at freq_0/freq_1 versus the
// window's loudest bin, and a rough SNR estimate. A terminal
// spectrogram or waveform plot is not implemented; the pack carries no
// plotting or image library to draw one, so --spectrum/--waveform
// print their numeric equivalent instead of a drawn figure.
func runDebug(args []string) error {
	fs := pflag.NewFlagSet("debug", pflag.ExitOnError)
	g := bindGlobalFlags(fs)
	spectrum := fs.Bool("spectrum", false, "Show per-window frequency bin power table")
	waveform := fs.Bool("waveform", false, "Show captured waveform level over time")
	duration := fs.Float64P("duration", "d", 2.0, "Capture duration in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings := g.settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	cfg := settings.ModulationConfig()

	return withAudio(func() error {
		channel := transport.NewAudioChannel(cfg)
		if err := channel.OpenInput(); err != nil {
			return err
		}
		defer channel.Close()

		time.Sleep(time.Duration(*duration * float64(time.Second)))
		samples := channel.CapturedSamples()
		if len(samples) == 0 {
			return fmt.Errorf("ush debug: no samples captured")
		}

		metrics := computeSignalMetrics(samples, cfg)
		fmt.Println("Signal analysis:")
		fmt.Printf("  duration:   %.2fs (%d samples)\n", metrics.durationSeconds, len(samples))
		fmt.Printf("  rms level:  %.6f\n", metrics.rms)
		fmt.Printf("  peak level: %.6f\n", metrics.peak)
		fmt.Printf("  freq_0 presence: %.3f\n", metrics.freq0Presence)
		fmt.Printf("  freq_1 presence: %.3f\n", metrics.freq1Presence)
		fmt.Printf("  estimated snr:   %.1f dB\n", metrics.snrDB)

		if *spectrum {
			printSpectrumTable(samples, cfg)
		}
		if *waveform {
			printWaveformLevels(samples, cfg.SampleRate)
		}
		return nil
	})
}

type signalMetrics struct {
	durationSeconds float64
	rms             float64
	peak            float64
	freq0Presence   float64
	freq1Presence   float64
	snrDB           float64
}

// computeSignalMetrics mirrors the SignalMetrics struct the original
// debug analysis produced: loudness stats plus how much of the capture
// carries energy at each BFSK frequency versus elsewhere.
func computeSignalMetrics(samples []float32, cfg modem.ModulationConfig) signalMetrics {
	var sumSq float64
	peak := float32(0)
	for _, s := range samples {
		sumSq += float64(s) * float64(s)
		if abs := float32(math.Abs(float64(s))); abs > peak {
			peak = abs
		}
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))

	windowSize := cfg.FFTSize()
	var carrierPower, offCarrierPower float64
	var freq0Windows, freq1Windows int
	windows := 0
	for start := 0; start+windowSize <= len(samples); start += windowSize {
		spec := modem.AnalyzeWindow(samples[start:start+windowSize], cfg)
		windows++
		if spec.Freq0Power > spec.Freq1Power {
			freq0Windows++
			carrierPower += spec.Freq0Power
		} else {
			freq1Windows++
			carrierPower += spec.Freq1Power
		}
		offCarrierPower += spec.PeakPower
	}

	freq0Presence, freq1Presence, snrDB := 0.0, 0.0, 0.0
	if windows > 0 {
		freq0Presence = float64(freq0Windows) / float64(windows)
		freq1Presence = float64(freq1Windows) / float64(windows)
		if offCarrierPower > 0 {
			snrDB = 10 * math.Log10(carrierPower/offCarrierPower)
		}
	}

	return signalMetrics{
		durationSeconds: float64(len(samples)) / float64(cfg.SampleRate),
		rms:             rms,
		peak:            float64(peak),
		freq0Presence:   freq0Presence,
		freq1Presence:   freq1Presence,
		snrDB:           snrDB,
	}
}

// printSpectrumTable prints a coarse per-window freq_0/freq_1 power
// table, the text equivalent of a spectrogram column.
func printSpectrumTable(samples []float32, cfg modem.ModulationConfig) {
	windowSize := cfg.FFTSize()
	fmt.Println("\nWindow  freq_0 power  freq_1 power  peak bin")
	for start, i := 0, 0; start+windowSize <= len(samples); start, i = start+windowSize, i+1 {
		spec := modem.AnalyzeWindow(samples[start:start+windowSize], cfg)
		fmt.Printf("%6d  %12.6f  %12.6f  %8d\n", i, spec.Freq0Power, spec.Freq1Power, spec.PeakBin)
	}
}

// printWaveformLevels prints a coarse RMS-per-100ms-chunk level trace,
// the text equivalent of a waveform plot.
func printWaveformLevels(samples []float32, sampleRate int) {
	chunk := sampleRate / 10
	if chunk == 0 {
		chunk = len(samples)
	}
	fmt.Println("\nTime(s)  level")
	for start, i := 0, 0; start < len(samples); start, i = start+chunk, i+1 {
		end := start + chunk
		if end > len(samples) {
			end = len(samples)
		}
		var sumSq float64
		for _, s := range samples[start:end] {
			sumSq += float64(s) * float64(s)
		}
		rms := math.Sqrt(sumSq / float64(end-start))
		fmt.Printf("%7.1f  %s\n", float64(i)*0.1, levelBar(rms))
	}
}

func levelBar(rms float64) string {
	n := int(rms * 200)
	if n > 40 {
		n = 40
	}
	bar := make([]byte, n)
	for i := range bar {
		bar[i] = '#'
	}
	return string(bar)
}
