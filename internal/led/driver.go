package led

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Options shared by every driver.
type Options struct {
	Count      int     // pixels on the strip
	ColorOrder string  // e.g. GRB, RGB
	Brightness float64 // 0..1, 0 means full
}
