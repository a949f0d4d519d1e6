// Package protocol implements the wire format shared verbatim by the chat
// client and server: a fixed-width length header followed by a JSON message
// body.
package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// HeaderLen is the size of the frame header in bytes. The header carries
	// the body length as space-padded decimal ASCII.
	HeaderLen = 4

	// MaxBodyLen bounds the frame body. Larger payloads are refused at
	// encode time; a header claiming more is a protocol violation.
	MaxBodyLen = 512
)

var (
	// ErrPayloadTooLarge is returned when a payload exceeds MaxBodyLen.
	ErrPayloadTooLarge = errors.New("protocol: payload exceeds maximum body length")

	// ErrMalformedHeader is returned when a frame header does not parse as a
	// length within [0, MaxBodyLen]. It is fatal to the connection.
	ErrMalformedHeader = errors.New("protocol: malformed frame header")
)

// EncodeFrame wraps payload in a frame: HeaderLen bytes of space-padded
// decimal length followed by the payload itself.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxBodyLen {
		return nil, ErrPayloadTooLarge
	}
	frame := make([]byte, 0, HeaderLen+len(payload))
	frame = append(frame, fmt.Sprintf("%*d", HeaderLen, len(payload))...)
	frame = append(frame, payload...)
	return frame, nil
}

// DecodeHeader parses a frame header and returns the body length.
func DecodeHeader(header []byte) (int, error) {
	if len(header) != HeaderLen {
		return 0, ErrMalformedHeader
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(header)))
	if err != nil || n < 0 || n > MaxBodyLen {
		return 0, ErrMalformedHeader
	}
	return n, nil
}

// DecodeBody returns the first n bytes of buf as the frame payload. The
// bytes are copied so the caller may reuse buf.
func DecodeBody(buf []byte, n int) []byte {
	payload := make([]byte, n)
	copy(payload, buf[:n])
	return payload
}

// ReadFrame reads exactly one frame from r and returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	n, err := DecodeHeader(header)
	if err != nil {
		return nil, err
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
