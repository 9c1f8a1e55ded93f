package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Size of the Moonboard.
const (
	Rows    = 18
	Columns = 11
)

var ErrInvalidHold = errors.New("invalid hold")

// Grid holds the logical dimensions of the board.
type Grid struct {
	Columns int
	Rows    int
}

// Moonboard is the standard 11x18 board.
var Moonboard = Grid{Columns: Columns, Rows: Rows}

func (g Grid) Cells() int { return g.Columns * g.Rows }

func (g Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.Columns && y >= 0 && y < g.Rows
}

// offset maps x,y -> flat cell index, x fastest.
func (g Grid) offset(x, y int) int { return y*g.Columns + x }

// Coordinate is a screen coordinate with (0,0) in the top-left corner,
// X being the horizontal axis.
type Coordinate struct {
	X, Y int
}

func (c Coordinate) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// ParseHold converts a hold name to a coordinate.
//
//	A18 -> (0,0)
//	B16 -> (1,2)
//	K1  -> (10,17)
func (g Grid) ParseHold(hold string) (Coordinate, error) {
	h := strings.ToUpper(strings.TrimSpace(hold))
	if len(h) < 2 || len(h) > 3 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidHold, hold)
	}
	if h[0] < 'A' || h[0] > 'Z' {
		return Coordinate{}, fmt.Errorf("%w: %q: bad column", ErrInvalidHold, hold)
	}
	row, err := strconv.Atoi(h[1:])
	if err != nil || h[1] < '0' || h[1] > '9' {
		return Coordinate{}, fmt.Errorf("%w: %q: bad row", ErrInvalidHold, hold)
	}
	c := Coordinate{X: int(h[0] - 'A'), Y: g.Rows - row}
	if !g.Contains(c.X, c.Y) {
		return Coordinate{}, fmt.Errorf("%w: %q outside %dx%d board", ErrInvalidHold, hold, g.Columns, g.Rows)
	}
	return c, nil
}

// HoldAt returns the canonical hold name at x,y.
func (g Grid) HoldAt(x, y int) (string, error) {
	if !g.Contains(x, y) || g.Columns > 26 {
		return "", fmt.Errorf("%w: coordinate (%d,%d)", ErrInvalidHold, x, y)
	}
	return string(rune('A'+x)) + strconv.Itoa(g.Rows-y), nil
}
