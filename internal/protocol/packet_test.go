package protocol

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	err := WriteFrame(&buf, 0x4320, payload)
	require.NoError(t, err)

	readBuf := make([]byte, 64)
	opcode, got, err := ReadFrame(&buf, readBuf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4320), opcode)
	assert.Equal(t, payload, got)
}

func TestFrameBareOpcode(t *testing.T) {
	var buf bytes.Buffer

	err := WriteFrame(&buf, 0x4111, nil)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize, buf.Len())

	readBuf := make([]byte, 64)
	opcode, payload, err := ReadFrame(&buf, readBuf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4111), opcode)
	assert.Empty(t, payload)
}

func TestFrameMalformedLength(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"length below header size", []byte{0x03, 0x00, 0x20, 0x43}},
		{"zero length", []byte{0x00, 0x00, 0x20, 0x43}},
		{"length above max", []byte{0xFF, 0xFF, 0x20, 0x43}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readBuf := make([]byte, 64)
			_, _, err := ReadFrame(bytes.NewReader(tt.frame), readBuf)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestFrameTruncatedPayload(t *testing.T) {
	// Header promises 8 payload bytes, stream delivers 2.
	frame := []byte{0x0C, 0x00, 0x20, 0x43, 0xAA, 0xBB}

	readBuf := make([]byte, 64)
	_, _, err := ReadFrame(bytes.NewReader(frame), readBuf)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// TestFrameResumableAcrossPartialReads verifies stream framing: a frame
// split across several TCP segments decodes once all bytes arrive.
func TestFrameResumableAcrossPartialReads(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, 0x4320, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	frame := buf.Bytes()

	go func() {
		// Dribble the frame one byte at a time.
		for _, b := range frame {
			client.Write([]byte{b})
			time.Sleep(time.Millisecond)
		}
	}()

	readBuf := make([]byte, 64)
	opcode, payload, err := ReadFrame(server, readBuf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4320), opcode)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, payload)
}

func TestEncodeFrame(t *testing.T) {
	dst, err := EncodeFrame(nil, 0x4321, []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0x00, 0x21, 0x43, 0x01}, dst)
}

func TestReaderFields(t *testing.T) {
	w := NewWriter(64)
	w.WriteByte(7)
	w.WriteUint16(0x1234)
	w.WriteInt32(-5)
	w.WriteUint32(0xDEADBEEF)
	w.WriteInt64(1<<40 + 1)
	w.WriteFixedString("host", 8)

	r := NewReader(w.Bytes())

	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(7), b)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-5), i32)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40+1), i64)

	s, err := r.ReadFixedString(8)
	require.NoError(t, err)
	assert.Equal(t, "host", s)

	assert.Equal(t, 0, r.Remaining())
}

func TestReaderBounds(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})

	_, err := r.ReadInt32()
	require.Error(t, err)

	// Position unchanged after a failed read.
	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16)

	_, err = r.ReadByte()
	require.Error(t, err)
}

func TestFixedStringTruncation(t *testing.T) {
	w := NewWriter(16)
	w.WriteFixedString("a-name-way-too-long", 8)
	assert.Equal(t, 8, w.Len())

	r := NewReader(w.Bytes())
	s, err := r.ReadFixedString(8)
	require.NoError(t, err)
	assert.Equal(t, "a-name-w", s)
}
