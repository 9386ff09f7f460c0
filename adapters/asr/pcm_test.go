package asr

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestPCMToFloat32(t *testing.T) {
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], 0)
	binary.LittleEndian.PutUint16(pcm[2:], uint16(16384))
	binary.LittleEndian.PutUint16(pcm[4:], 0x8000) // -32768
	binary.LittleEndian.PutUint16(pcm[6:], 0x7FFF) // 32767

	samples := pcmToFloat32(pcm)
	if len(samples) != 4 {
		t.Fatalf("got %d samples, want 4", len(samples))
	}

	want := []float32{0, 0.5, -1, 32767.0 / 32768.0}
	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-6 {
			t.Errorf("samples[%d] = %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestPCMToFloat32OddTail(t *testing.T) {
	if got := pcmToFloat32([]byte{0x12, 0x34, 0x56}); len(got) != 1 {
		t.Errorf("got %d samples, want 1 (trailing byte ignored)", len(got))
	}
	if got := pcmToFloat32(nil); len(got) != 0 {
		t.Errorf("got %d samples for empty input", len(got))
	}
}
