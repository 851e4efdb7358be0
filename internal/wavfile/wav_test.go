package wavfile

import (
	"path/filepath"
	"testing"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 0.25}
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := Save(path, samples, 44100); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec.SampleRate != 44100 || spec.Channels != 1 || spec.BitsPerSample != 32 || !spec.Float {
		t.Fatalf("spec = %+v, want 44100/1/32/float", spec)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}
}
