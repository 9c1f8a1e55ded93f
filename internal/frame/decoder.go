package frame

import "fmt"

// State of the decoder between bytes.
type State int

const (
	Idle State = iota
	InFrame
	Escaped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFrame:
		return "in_frame"
	case Escaped:
		return "escaped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Decoder is a byte de-stuffer and frame reassembler. State persists across
// calls, so a frame (or an escape pair) may straddle any number of chunks.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	state   State
	buf     []byte
	maxLen  int
	pending []Frame

	corrupt int
	lastErr error
}

// NewDecoder returns a decoder that drops frames longer than maxLen.
// maxLen <= 0 selects MaxLen.
func NewDecoder(maxLen int) *Decoder {
	if maxLen <= 0 {
		maxLen = MaxLen
	}
	return &Decoder{maxLen: maxLen}
}

func (d *Decoder) State() State { return d.state }

// Corruptions is the number of partial frames discarded so far.
func (d *Decoder) Corruptions() int { return d.corrupt }

// LastError describes the most recent discarded frame, or nil.
func (d *Decoder) LastError() error { return d.lastErr }

// ProcessBytes feeds one arrived chunk and returns a completed frame if there
// is one. When a chunk completes several frames they are returned oldest
// first by this and subsequent calls (a nil chunk just drains).
func (d *Decoder) ProcessBytes(chunk []byte) (Frame, bool) {
	d.pending = append(d.pending, d.Feed(chunk)...)
	if len(d.pending) == 0 {
		return nil, false
	}
	f := d.pending[0]
	d.pending = d.pending[1:]
	return f, true
}

// Feed consumes chunk and returns every frame it completes.
func (d *Decoder) Feed(chunk []byte) []Frame {
	var out []Frame
	for _, b := range chunk {
		switch d.state {
		case Idle:
			if b == End {
				d.state = InFrame
				d.buf = d.buf[:0]
			}
			// anything else is line noise between frames

		case InFrame:
			switch b {
			case End:
				if len(d.buf) == 0 {
					// back-to-back delimiters: treat as the start of a frame
					continue
				}
				f := make(Frame, len(d.buf))
				copy(f, d.buf)
				out = append(out, f)
				d.buf = d.buf[:0]
				d.state = Idle
			case Esc:
				d.state = Escaped
			default:
				d.append(b)
			}

		case Escaped:
			switch b {
			case EscEnd:
				d.state = InFrame
				d.append(End)
			case EscEsc:
				d.state = InFrame
				d.append(Esc)
			case End:
				// The sender aborted mid-escape; this END opens the next frame.
				d.discard(fmt.Errorf("%w: ESC followed by END", ErrBadEscape))
				d.state = InFrame
			default:
				d.discard(fmt.Errorf("%w: ESC followed by 0x%02x", ErrBadEscape, b))
			}
		}
	}
	return out
}

func (d *Decoder) append(b byte) {
	if len(d.buf) >= d.maxLen {
		d.discard(fmt.Errorf("%w: %d bytes", ErrTooLong, d.maxLen))
		return
	}
	d.buf = append(d.buf, b)
}

// discard drops the partial frame and resynchronizes on the next END.
func (d *Decoder) discard(err error) {
	d.buf = d.buf[:0]
	d.state = Idle
	d.corrupt++
	d.lastErr = err
}

// Reset drops any partial frame and queued frames.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.pending = nil
	d.state = Idle
}
