package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInconsistentWiring means the configured start hold and direction do not
// cover every cell of the grid exactly once.
var ErrInconsistentWiring = errors.New("wiring does not cover grid")

// Direction of travel, as per screen coordinates (y grows downward).
type Direction int

const (
	Right Direction = iota
	Left
	Up
	Down
)

func (d Direction) delta() (dx, dy int) {
	switch d {
	case Right:
		return 1, 0
	case Left:
		return -1, 0
	case Up:
		return 0, -1
	default:
		return 0, 1
	}
}

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right":
		return Right, nil
	case "left":
		return Left, nil
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Map is the pattern in which LEDs were wired into the board. It converts
// between coordinates, hold names and LED pixel numbers. A Map is immutable
// once built.
type Map struct {
	grid   Grid
	start  Coordinate
	dir    Direction
	pixel  []int        // cell offset -> pixel
	coords []Coordinate // pixel -> coordinate
}

// New walks the LED string starting from startHold and moving in dir. When the
// walk runs off a side it turns around and steps into the neighbouring row (or
// column) that has not been visited yet.
func New(g Grid, startHold string, dir Direction) (*Map, error) {
	if g.Columns <= 0 || g.Rows <= 0 {
		return nil, fmt.Errorf("invalid grid %dx%d", g.Columns, g.Rows)
	}
	start, err := g.ParseHold(startHold)
	if err != nil {
		return nil, fmt.Errorf("start hold: %w", err)
	}

	n := g.Cells()
	m := &Map{
		grid:   g,
		start:  start,
		dir:    dir,
		pixel:  make([]int, n),
		coords: make([]Coordinate, n),
	}
	for i := range m.pixel {
		m.pixel[i] = -1
	}

	x, y := start.X, start.Y
	dx, dy := dir.delta()
	for i := 0; i < n; i++ {
		if !g.Contains(x, y) || m.pixel[g.offset(x, y)] != -1 {
			return nil, fmt.Errorf("%w: pixel %d lands on (%d,%d)", ErrInconsistentWiring, i, x, y)
		}
		m.pixel[g.offset(x, y)] = i
		m.coords[i] = Coordinate{X: x, Y: y}

		x += dx
		y += dy

		switch {
		case x < 0 || x >= g.Columns:
			if x < 0 {
				dx, dy = 1, 0
				x = 0
			} else {
				dx, dy = -1, 0
				x = g.Columns - 1
			}
			if y == 0 || m.assigned(x, y-1) {
				y++
			} else {
				y--
			}
		case y < 0 || y >= g.Rows:
			if y < 0 {
				dx, dy = 0, 1
				y = 0
			} else {
				dx, dy = 0, -1
				y = g.Rows - 1
			}
			if x == 0 || m.assigned(x-1, y) {
				x++
			} else {
				x--
			}
		}
	}

	for off, p := range m.pixel {
		if p == -1 {
			return nil, fmt.Errorf("%w: cell (%d,%d) unassigned", ErrInconsistentWiring, off%g.Columns, off/g.Columns)
		}
	}
	return m, nil
}

func (m *Map) assigned(x, y int) bool {
	return m.grid.Contains(x, y) && m.pixel[m.grid.offset(x, y)] != -1
}

func (m *Map) Grid() Grid { return m.grid }

func (m *Map) Start() Coordinate { return m.start }

func (m *Map) Direction() Direction { return m.dir }

// Len is the number of cells, which is also the number of addressed pixels.
func (m *Map) Len() int { return len(m.pixel) }

// CoordinateToPixel converts a screen coordinate into a LED pixel.
func (m *Map) CoordinateToPixel(x, y int) (int, error) {
	if !m.grid.Contains(x, y) {
		return 0, fmt.Errorf("coordinate (%d,%d) outside %dx%d grid", x, y, m.grid.Columns, m.grid.Rows)
	}
	return m.pixel[m.grid.offset(x, y)], nil
}

// HoldToPixel converts a hold name (eg A12) to a pixel index.
func (m *Map) HoldToPixel(hold string) (int, error) {
	c, err := m.grid.ParseHold(hold)
	if err != nil {
		return 0, err
	}
	return m.pixel[m.grid.offset(c.X, c.Y)], nil
}

// PixelToCoordinate is the inverse of CoordinateToPixel.
func (m *Map) PixelToCoordinate(i int) (Coordinate, error) {
	if i < 0 || i >= len(m.coords) {
		return Coordinate{}, fmt.Errorf("pixel %d out of range [0,%d)", i, len(m.coords))
	}
	return m.coords[i], nil
}
