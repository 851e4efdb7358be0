package modem

import "testing"

func TestDetectSignalStart_ShortBuffer(t *testing.T) {
	samples := make([]float32, 100)
	if idx := DetectSignalStart(samples, 0.5); idx != -1 {
		t.Errorf("DetectSignalStart on short buffer = %d, want -1", idx)
	}
}

func TestDetectSignalStart_LocatesOnset(t *testing.T) {
	silence := make([]float32, 2000)
	tone := make([]float32, 1000)
	for i := range tone {
		tone[i] = 0.5
	}
	samples := append(silence, tone...)

	idx := DetectSignalStart(samples, 0.5)
	if idx < 0 {
		t.Fatal("expected signal to be detected")
	}
	if idx < len(silence)-detectWindowSize || idx > len(silence) {
		t.Errorf("detected onset at %d, expected near %d", idx, len(silence))
	}
}

func TestDetectSignalStart_NoSignalAboveThreshold(t *testing.T) {
	samples := make([]float32, 4000)
	if idx := DetectSignalStart(samples, 0.5); idx != -1 {
		t.Errorf("DetectSignalStart on all-zero buffer = %d, want -1", idx)
	}
}
