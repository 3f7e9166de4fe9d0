package audio

import "encoding/binary"

// Int16ToBytes encodes samples as little-endian PCM into dst, growing it when
// needed, and returns the filled slice.
func Int16ToBytes(dst []byte, samples []int16) []byte {
	n := len(samples) * 2
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(sample))
	}
	return dst
}

// BytesToInt16 decodes little-endian PCM into dst and returns the number of
// samples written. A trailing odd byte is ignored.
func BytesToInt16(dst []int16, pcm []byte) int {
	n := min(len(dst), len(pcm)/2)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return n
}
