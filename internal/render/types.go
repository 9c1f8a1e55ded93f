package render

import "fmt"

// Color is an 8-bit RGB triple. Channel order on the wire is the driver's
// concern.
type Color struct{ R, G, B uint8 }

func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Palette for problems, at the brightness the board was tuned for.
var (
	Black = Color{}
	Green = Color{G: 200}
	Blue  = Color{B: 200}
	Red   = Color{R: 200}
	White = Color{R: 200, G: 200, B: 200}
)

// Driver abstracts the LED transport (SPI, console, memory). Write receives
// 3 bytes per pixel and must push the whole buffer before returning.
type Driver interface {
	Write(rgb []byte) error
}
