package render

import (
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-moonboard/internal/layout"
	"github.com/coreman2200/funtimes-moonboard/internal/problem"
)

var ErrAmbiguousTarget = errors.New("specify either a coordinate or a hold")

// Target addresses one cell, by hold name or by coordinate. Exactly one of
// the two must be set.
type Target struct {
	Hold  string
	Coord *layout.Coordinate
}

func ByHold(h string) Target { return Target{Hold: h} }

func At(x, y int) Target { return Target{Coord: &layout.Coordinate{X: x, Y: y}} }

// Grid is the logical display: one color per cell, (0,0) top-left, plus the
// physical pixel buffer it is rendered into.
type Grid struct {
	layout *layout.Map
	drv    Driver

	cells  []Color // x + y*columns
	pixels []Color
	rgb    []byte
	frames uint64
}

// NewGrid allocates buffers for nPixels LEDs. nPixels may exceed the number of
// cells; the trailing pixels are never lit.
func NewGrid(m *layout.Map, nPixels int, drv Driver) (*Grid, error) {
	if m == nil {
		return nil, errors.New("nil layout")
	}
	if nPixels < m.Len() {
		return nil, fmt.Errorf("%d pixels cannot cover %d cells", nPixels, m.Len())
	}
	return &Grid{
		layout: m,
		drv:    drv,
		cells:  make([]Color, m.Len()),
		pixels: make([]Color, nPixels),
		rgb:    make([]byte, nPixels*3),
	}, nil
}

func (g *Grid) Layout() *layout.Map { return g.layout }

// Frames is the number of successful renders.
func (g *Grid) Frames() uint64 { return g.frames }

// Set colors the cell at t.
func (g *Grid) Set(t Target, c Color) error {
	if (t.Hold == "") == (t.Coord == nil) {
		return ErrAmbiguousTarget
	}
	dim := g.layout.Grid()
	var x, y int
	if t.Coord != nil {
		x, y = t.Coord.X, t.Coord.Y
		if !dim.Contains(x, y) {
			return fmt.Errorf("coordinate (%d,%d) outside %dx%d grid", x, y, dim.Columns, dim.Rows)
		}
	} else {
		xy, err := dim.ParseHold(t.Hold)
		if err != nil {
			return err
		}
		x, y = xy.X, xy.Y
	}
	g.cells[y*dim.Columns+x] = c
	return nil
}

// Get returns the color of the cell at x,y (black when out of range).
func (g *Grid) Get(x, y int) Color {
	dim := g.layout.Grid()
	if !dim.Contains(x, y) {
		return Black
	}
	return g.cells[y*dim.Columns+x]
}

// Clear resets every cell to black. The hardware is untouched until Render.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Black
	}
}

// Fill sets every cell to c.
func (g *Grid) Fill(c Color) {
	for i := range g.cells {
		g.cells[i] = c
	}
}

// Apply replaces the display contents with p: start holds green, moves
// blue, top red. Every hold is checked first, so a bad problem leaves the
// grid as it was.
func (g *Grid) Apply(p problem.Problem) error {
	layers := []struct {
		holds []string
		color Color
	}{
		{p.Start, Green},
		{p.Moves, Blue},
		{p.Top, Red},
	}
	dim := g.layout.Grid()
	for _, l := range layers {
		for _, h := range l.holds {
			if _, err := dim.ParseHold(h); err != nil {
				return err
			}
		}
	}
	g.Clear()
	for _, l := range layers {
		for _, h := range l.holds {
			if err := g.Set(ByHold(h), l.color); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render maps every cell to its pixel and flushes the whole buffer in one
// driver write, so the strip never shows a half-updated grid.
func (g *Grid) Render() error {
	dim := g.layout.Grid()
	for i := range g.pixels {
		g.pixels[i] = Black
	}
	for y := 0; y < dim.Rows; y++ {
		for x := 0; x < dim.Columns; x++ {
			p, err := g.layout.CoordinateToPixel(x, y)
			if err != nil {
				return err
			}
			g.pixels[p] = g.cells[y*dim.Columns+x]
		}
	}
	for i, c := range g.pixels {
		g.rgb[i*3+0] = c.R
		g.rgb[i*3+1] = c.G
		g.rgb[i*3+2] = c.B
	}
	if g.drv != nil {
		if err := g.drv.Write(g.rgb); err != nil {
			return fmt.Errorf("flush %d pixels: %w", len(g.pixels), err)
		}
	}
	g.frames++
	return nil
}

// Pixels returns a copy of the pixel buffer as of the last Render.
func (g *Grid) Pixels() []Color {
	out := make([]Color, len(g.pixels))
	copy(out, g.pixels)
	return out
}
