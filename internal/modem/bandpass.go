package modem

import "math"

// Bandpass applies a cascaded single-pole RC high-pass (cutoff lowHz)
// followed by a single-pole RC low-pass (cutoff highHz). It is a light
// conditioner, not a brick-wall filter — the demodulator's per-symbol
// FFT does the real frequency selectivity.
func Bandpass(samples []float32, lowHz, highHz float64, sampleRate int) []float32 {
	out := make([]float32, len(samples))
	copy(out, samples)

	alphaHP := 1.0 / (1.0 + 2*math.Pi*lowHz/float64(sampleRate))
	var prevInput, prevOutput float64
	for i, s := range out {
		x := float64(s)
		y := alphaHP * (prevOutput + x - prevInput)
		prevInput = x
		prevOutput = y
		out[i] = float32(y)
	}

	alphaLP := (2 * math.Pi * highHz / float64(sampleRate)) / (1.0 + 2*math.Pi*highHz/float64(sampleRate))
	prevOutput = 0
	for i, s := range out {
		x := float64(s)
		y := prevOutput + alphaLP*(x-prevOutput)
		prevOutput = y
		out[i] = float32(y)
	}

	return out
}
