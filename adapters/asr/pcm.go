package asr

import "encoding/binary"

// pcmToFloat32 converts little-endian 16-bit PCM samples to normalized
// float32 samples in [-1, 1). A trailing odd byte is ignored.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}
