package modem

import "math"

// RemoveDCOffset strips DC bias from a sample buffer using a running-
// average high-pass filter. Useful as a conditioning step before signal
// detection on raw microphone input.
func RemoveDCOffset(samples []float32) []float32 {
	if len(samples) == 0 {
		return samples
	}

	const alpha = 0.999
	out := make([]float32, len(samples))
	dc := float64(samples[0])
	for i, s := range samples {
		dc = alpha*dc + (1-alpha)*float64(s)
		out[i] = float32(float64(s) - dc)
	}
	return out
}

// ApplyAGC rescales samples so their RMS level matches targetRMS.
// Buffers with negligible energy are returned unchanged to avoid
// amplifying silence into noise.
func ApplyAGC(samples []float32, targetRMS float64) []float32 {
	if len(samples) == 0 {
		return samples
	}

	var sumSq float64
	for _, s := range samples {
		v := float64(s)
		sumSq += v * v
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))
	if rms < 1e-10 {
		return samples
	}

	gain := targetRMS / rms
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(float64(s) * gain)
	}
	return out
}
