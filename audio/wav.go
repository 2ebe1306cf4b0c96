package audio

import (
	"encoding/binary"
	"io"
	"math"
)

const wavHeaderSize = 44

// WriteWAV encodes s as a canonical 16-bit mono PCM WAV stream.
func (s *Sample) WriteWAV(w io.Writer) error {
	dataSize := uint32(len(s.pcm) * 2)

	hdr := make([]byte, wavHeaderSize)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(s.rate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(s.rate*2))
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataSize)
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	buf := make([]byte, 2*len(s.pcm))
	for i, v := range s.pcm {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(toInt16(v)))
	}
	_, err := w.Write(buf)
	return err
}

func toInt16(v float32) int16 {
	f := math.Round(float64(v) * 32768.0)
	if f > math.MaxInt16 {
		return math.MaxInt16
	}
	if f < math.MinInt16 {
		return math.MinInt16
	}
	return int16(f)
}
