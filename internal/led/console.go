package led

import (
	"fmt"
	"sync"

	"periph.io/x/extra/devices/screen"
)

// Console prints each frame as a row of ANSI colored blocks, for benches
// without a strip attached.
type Console struct {
	mu    sync.Mutex
	dev   *screen.Dev
	count int
	enc   *encoder
}

func NewConsole(o Options) (*Console, error) {
	if o.Count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", o.Count)
	}
	// The terminal is RGB whatever the strip order is.
	enc, err := newEncoder("RGB", o.Brightness)
	if err != nil {
		return nil, err
	}
	return &Console{dev: screen.New(o.Count), count: o.Count, enc: enc}, nil
}

func (c *Console) Write(rgb []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(rgb) != c.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), c.count)
	}
	if _, err := c.dev.Write(c.enc.encode(rgb)); err != nil {
		return fmt.Errorf("console write: %w", err)
	}
	return nil
}

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Halt()
}
