package riff

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// WriteWAV serializes a finished buffer as 16-bit signed PCM, mono, little
// endian. Amplitudes are clipped to [-1, 1] here; the synthesis core never
// clamps.
func WriteWAV(w io.Writer, ir *ImpulseResponse) error {
	dataSize := uint32(ir.Len() * 2)

	header := []interface{}{
		[]byte("RIFF"),
		uint32(36 + dataSize),
		[]byte("WAVE"),
		[]byte("fmt "),
		uint32(16),                    // fmt chunk size
		uint16(1),                     // PCM
		uint16(1),                     // mono
		uint32(ir.SampleRate()),       // sample rate
		uint32(ir.SampleRate() * 2),   // byte rate
		uint16(2),                     // block align
		uint16(16),                    // bits per sample
		[]byte("data"),
		dataSize,
	}

	for _, field := range header {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}

	for _, s := range ir.Samples() {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}

		if err := binary.Write(w, binary.LittleEndian, int16(s*32767)); err != nil {
			return err
		}
	}

	return nil
}

// ExportWAV writes the buffer to a file at path.
func ExportWAV(path string, ir *ImpulseResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := WriteWAV(w, ir); err != nil {
		f.Close()
		return err
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
