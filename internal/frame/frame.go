// Package frame reassembles byte-stuffed frames from a fragmented stream.
//
// Wire format (SLIP, RFC 1055):
//
//	[END][stuffed payload][END]
//	- END (0xC0) delimits frames
//	- ESC (0xDB) ESC_END (0xDC) encodes a literal END
//	- ESC (0xDB) ESC_ESC (0xDD) encodes a literal ESC
//
// The transport gives no delivery guarantee, so corruption is never an error
// to the caller: the partial frame is dropped and the decoder waits for the
// next END.
package frame

import "errors"

const (
	End    byte = 0xC0
	Esc    byte = 0xDB
	EscEnd byte = 0xDC
	EscEsc byte = 0xDD

	// MaxLen is the default limit on a de-stuffed frame.
	MaxLen = 4096
)

var (
	ErrBadEscape = errors.New("invalid escape sequence")
	ErrTooLong   = errors.New("frame exceeds maximum length")
)

// Frame is one complete, de-stuffed transmission unit.
type Frame []byte

// Encode stuffs payload into a wire frame with a leading and trailing END.
func Encode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+len(payload)/8+2)
	out = append(out, End)
	for _, b := range payload {
		switch b {
		case End:
			out = append(out, Esc, EscEnd)
		case Esc:
			out = append(out, Esc, EscEsc)
		default:
			out = append(out, b)
		}
	}
	return append(out, End)
}

// Split cuts a wire frame into chunks of at most mtu bytes, the way a
// transport with a small write size would deliver it.
func Split(wire []byte, mtu int) [][]byte {
	if mtu <= 0 {
		mtu = len(wire)
	}
	var chunks [][]byte
	for len(wire) > 0 {
		n := mtu
		if n > len(wire) {
			n = len(wire)
		}
		chunks = append(chunks, wire[:n:n])
		wire = wire[n:]
	}
	return chunks
}
