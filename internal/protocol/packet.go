package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame layout: [uint16 LE total length][uint16 LE opcode][payload].
// Total length counts the whole frame including the 4-byte header.
// A bare-opcode frame (no payload) has length == HeaderSize.
const (
	HeaderSize = 4

	// MaxFrameSize bounds a single frame. The legacy client never sends
	// anything close to this; larger lengths mean a desynced or hostile stream.
	MaxFrameSize = 8192
)

// ErrMalformedFrame reports an invalid length field. Connection-fatal:
// once the length prefix cannot be trusted the stream cannot be resynced.
var ErrMalformedFrame = errors.New("malformed frame")

// ReadFrame reads one frame from r into buf.
// Returns the opcode and a subslice of buf holding the payload (empty for
// bare-opcode frames). Blocks until a full frame arrives; partial reads are
// resumed via io.ReadFull.
func ReadFrame(r io.Reader, buf []byte) (uint16, []byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("reading frame header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[:2]))
	opcode := binary.LittleEndian.Uint16(header[2:])

	if totalLen < HeaderSize || totalLen > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: length %d", ErrMalformedFrame, totalLen)
	}

	payloadLen := totalLen - HeaderSize
	if payloadLen > len(buf) {
		return 0, nil, fmt.Errorf("frame payload %d exceeds buffer size %d", payloadLen, len(buf))
	}

	payload := buf[:payloadLen]
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("reading frame payload: %w", err)
	}

	return opcode, payload, nil
}

// WriteFrame writes one frame to w.
// A nil or empty payload encodes as a bare opcode frame.
func WriteFrame(w io.Writer, opcode uint16, payload []byte) error {
	totalLen := HeaderSize + len(payload)
	if totalLen > MaxFrameSize {
		return fmt.Errorf("frame payload too large: %d", len(payload))
	}

	var header [HeaderSize]byte
	binary.LittleEndian.PutUint16(header[:2], uint16(totalLen))
	binary.LittleEndian.PutUint16(header[2:], opcode)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("writing frame payload: %w", err)
		}
	}
	return nil
}

// EncodeFrame appends a complete frame (header + payload) to dst and
// returns the extended slice. Used by the write queue, which hands whole
// frames to the connection writer in one Write call.
func EncodeFrame(dst []byte, opcode uint16, payload []byte) ([]byte, error) {
	totalLen := HeaderSize + len(payload)
	if totalLen > MaxFrameSize {
		return dst, fmt.Errorf("frame payload too large: %d", len(payload))
	}

	var header [HeaderSize]byte
	binary.LittleEndian.PutUint16(header[:2], uint16(totalLen))
	binary.LittleEndian.PutUint16(header[2:], opcode)

	dst = append(dst, header[:]...)
	dst = append(dst, payload...)
	return dst, nil
}
