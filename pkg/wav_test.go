package riff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteWAVHeader(t *testing.T) {
	ir, err := NewImpulseResponse(4, 1, InitUnitImpulse)
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, WriteWAV(&buf, ir))

	b := buf.Bytes()
	assert.Len(t, b, 44+8) // 44-byte header plus 4 samples at 2 bytes each

	assert.Equal(t, []byte("RIFF"), b[0:4])
	assert.Equal(t, uint32(36+8), binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, []byte("WAVE"), b[8:12])
	assert.Equal(t, []byte("fmt "), b[12:16])
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(b[16:20]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[20:22])) // PCM
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[22:24])) // mono
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(b[28:32])) // byte rate
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(b[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(b[34:36]))
	assert.Equal(t, []byte("data"), b[36:40])
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(b[40:44]))
}

func TestWriteWAVSamples(t *testing.T) {
	ir, err := NewImpulseResponse(4, 1, InitSilence)
	assert.NoError(t, err)

	assert.NoError(t, ir.Write(0, 1))
	assert.NoError(t, ir.Write(1, -0.5))
	assert.NoError(t, ir.Write(2, 2.5))  // clipped to 1
	assert.NoError(t, ir.Write(3, -1.5)) // clipped to -1

	var buf bytes.Buffer
	assert.NoError(t, WriteWAV(&buf, ir))

	data := buf.Bytes()[44:]
	got := make([]int16, 4)
	assert.NoError(t, binary.Read(bytes.NewReader(data), binary.LittleEndian, got))

	assert.Equal(t, []int16{32767, -16383, 32767, -32767}, got)
}
