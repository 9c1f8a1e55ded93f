package led

import (
	"fmt"
	"strings"
)

// encoder reorders channels for the strip and applies global brightness.
type encoder struct {
	order [3]byte
	scale uint16 // brightness in 1/256ths
	buf   []byte
}

func newEncoder(colorOrder string, brightness float64) (*encoder, error) {
	e := &encoder{order: [3]byte{'G', 'R', 'B'}, scale: 256}
	if colorOrder != "" {
		o := strings.ToUpper(colorOrder)
		if len(o) != 3 || !strings.ContainsRune(o, 'R') || !strings.ContainsRune(o, 'G') || !strings.ContainsRune(o, 'B') {
			return nil, fmt.Errorf("invalid color order %q", colorOrder)
		}
		e.order = [3]byte{o[0], o[1], o[2]}
	}
	if brightness < 0 || brightness > 1 {
		return nil, fmt.Errorf("brightness %v outside 0..1", brightness)
	}
	if brightness > 0 {
		e.scale = uint16(brightness*256 + 0.5)
	}
	return e, nil
}

// encode returns rgb in strip order. The returned slice is reused.
func (e *encoder) encode(rgb []byte) []byte {
	if cap(e.buf) < len(rgb) {
		e.buf = make([]byte, len(rgb))
	}
	out := e.buf[:len(rgb)]
	for i := 0; i+2 < len(rgb); i += 3 {
		for j := 0; j < 3; j++ {
			var v byte
			switch e.order[j] {
			case 'R':
				v = rgb[i]
			case 'G':
				v = rgb[i+1]
			case 'B':
				v = rgb[i+2]
			}
			out[i+j] = byte(uint16(v) * e.scale >> 8)
		}
	}
	return out
}
