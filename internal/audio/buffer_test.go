package audio

import "testing"

func TestBuffer_AppendSnapshotDrain(t *testing.T) {
	buf := NewBuffer()
	buf.Append([]float32{1, 2, 3})
	buf.Append([]float32{4, 5})

	if got := buf.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}

	snap := buf.Snapshot()
	want := []float32{1, 2, 3, 4, 5}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("snap[%d] = %v, want %v", i, snap[i], want[i])
		}
	}

	buf.Drain(2)
	if got := buf.Len(); got != 3 {
		t.Fatalf("Len() after Drain(2) = %d, want 3", got)
	}

	buf.Drain(100)
	if got := buf.Len(); got != 0 {
		t.Fatalf("Len() after over-draining = %d, want 0", got)
	}
}
