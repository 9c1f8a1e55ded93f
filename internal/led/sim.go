package led

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Sim keeps the last frame in memory and logs a compact summary of each
// write. Useful for headless runs and tests.
type Sim struct {
	mu     sync.Mutex
	log    zerolog.Logger
	count  int
	frames int
	last   []byte
	closed bool
}

func NewSim(count int, log zerolog.Logger) *Sim {
	return &Sim{count: count, log: log}
}

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sim closed")
	}
	if s.count > 0 && len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}
	s.frames++
	s.last = append(s.last[:0], rgb...)

	lit := 0
	for i := 0; i+2 < len(rgb); i += 3 {
		if rgb[i]|rgb[i+1]|rgb[i+2] != 0 {
			lit++
		}
	}
	s.log.Debug().Int("frame", s.frames).Int("lit", lit).Int("pixels", len(rgb)/3).Msg("sim frame")
	return nil
}

// Frames is the number of writes so far.
func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Last returns a copy of the last frame written.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

// Lit reports whether pixel i was non-black in the last frame.
func (s *Sim) Lit(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i*3+2 >= len(s.last) {
		return false
	}
	return s.last[i*3]|s.last[i*3+1]|s.last[i*3+2] != 0
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
