package modem

import "testing"

func TestBandpass_PreservesLength(t *testing.T) {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(i%7) - 3
	}

	out := Bandpass(samples, 100, 3000, 44100)
	if len(out) != len(samples) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(samples))
	}
}

func TestBandpass_AttenuatesDC(t *testing.T) {
	samples := make([]float32, 2000)
	for i := range samples {
		samples[i] = 1.0
	}

	out := Bandpass(samples, 500, 10000, 44100)

	tail := out[len(out)-100:]
	var sum float64
	for _, s := range tail {
		sum += float64(s)
	}
	mean := sum / float64(len(tail))
	if mean > 0.05 {
		t.Errorf("mean tail amplitude %v did not attenuate toward 0 for constant DC input", mean)
	}
}
