package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHold(t *testing.T) {
	cases := []struct {
		hold string
		want Coordinate
	}{
		{"A18", Coordinate{0, 0}},
		{"B16", Coordinate{1, 2}},
		{"K1", Coordinate{10, 17}},
		{"k1", Coordinate{10, 17}},
		{" C12 ", Coordinate{2, 6}},
	}
	for _, c := range cases {
		got, err := Moonboard.ParseHold(c.hold)
		require.NoError(t, err, c.hold)
		assert.Equal(t, c.want, got, c.hold)
	}
}

func TestParseHoldRejectsOutOfRange(t *testing.T) {
	for _, h := range []string{"Z99", "L1", "A0", "A19", "A", "", "A-1", "A+1", "1A", "A100"} {
		_, err := Moonboard.ParseHold(h)
		assert.True(t, errors.Is(err, ErrInvalidHold), "hold %q: got %v", h, err)
	}
}

func TestHoldAtRoundTrip(t *testing.T) {
	for y := 0; y < Rows; y++ {
		for x := 0; x < Columns; x++ {
			h, err := Moonboard.HoldAt(x, y)
			require.NoError(t, err)
			c, err := Moonboard.ParseHold(h)
			require.NoError(t, err)
			assert.Equal(t, Coordinate{x, y}, c)
		}
	}
}

func assertBijection(t *testing.T, m *Map) {
	t.Helper()
	g := m.Grid()
	seen := make([]bool, g.Cells())
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Columns; x++ {
			p, err := m.CoordinateToPixel(x, y)
			require.NoError(t, err)
			require.True(t, p >= 0 && p < g.Cells(), "pixel %d out of range", p)
			require.False(t, seen[p], "pixel %d assigned twice", p)
			seen[p] = true

			back, err := m.PixelToCoordinate(p)
			require.NoError(t, err)
			assert.Equal(t, Coordinate{x, y}, back)
		}
	}
	for i, ok := range seen {
		assert.True(t, ok, "pixel %d never produced", i)
	}
}

func TestMoonboardWiringFromK1Up(t *testing.T) {
	m, err := New(Moonboard, "K1", Up)
	require.NoError(t, err)
	assert.Equal(t, 198, m.Len())
	assertBijection(t, m)

	// Up column K, down column J, up column I...
	for _, c := range []struct {
		hold  string
		pixel int
	}{
		{"K1", 0},
		{"K18", 17},
		{"J18", 18},
		{"J1", 35},
		{"I1", 36},
		{"A18", 197},
	} {
		p, err := m.HoldToPixel(c.hold)
		require.NoError(t, err)
		assert.Equal(t, c.pixel, p, c.hold)
	}
}

func TestEveryCornerAndDirection(t *testing.T) {
	corners := []string{"A18", "K18", "A1", "K1"}
	for _, h := range corners {
		for _, d := range []Direction{Right, Left, Up, Down} {
			m, err := New(Moonboard, h, d)
			if err != nil {
				// Heading straight off the board from a corner is a wiring error.
				assert.True(t, errors.Is(err, ErrInconsistentWiring), "%s/%s: %v", h, d, err)
				continue
			}
			assertBijection(t, m)
		}
	}
}

func TestRowWiseFromA18(t *testing.T) {
	m, err := New(Moonboard, "A18", Right)
	require.NoError(t, err)
	assertBijection(t, m)

	p, err := m.HoldToPixel("K18")
	require.NoError(t, err)
	assert.Equal(t, 10, p)
	p, err = m.HoldToPixel("K17")
	require.NoError(t, err)
	assert.Equal(t, 11, p)
}

func TestInconsistentWiring(t *testing.T) {
	// Starting mid-board cannot snake over every cell.
	_, err := New(Moonboard, "F9", Up)
	assert.True(t, errors.Is(err, ErrInconsistentWiring), "got %v", err)

	_, err = New(Moonboard, "Z99", Up)
	assert.True(t, errors.Is(err, ErrInvalidHold), "got %v", err)
}

func TestCoordinateToPixelBounds(t *testing.T) {
	m, err := New(Moonboard, "K1", Up)
	require.NoError(t, err)
	for _, c := range []Coordinate{{-1, 0}, {0, -1}, {Columns, 0}, {0, Rows}} {
		_, err := m.CoordinateToPixel(c.X, c.Y)
		assert.Error(t, err, c.String())
	}
	_, err = m.PixelToCoordinate(198)
	assert.Error(t, err)
}

func TestInverseConsistency(t *testing.T) {
	m, err := New(Moonboard, "K1", Up)
	require.NoError(t, err)
	for y := 0; y < Rows; y++ {
		for x := 0; x < Columns; x++ {
			h, err := Moonboard.HoldAt(x, y)
			require.NoError(t, err)
			byHold, err := m.HoldToPixel(h)
			require.NoError(t, err)
			byCoord, err := m.CoordinateToPixel(x, y)
			require.NoError(t, err)
			assert.Equal(t, byCoord, byHold, h)
		}
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" UP ")
	require.NoError(t, err)
	assert.Equal(t, Up, d)
	assert.Equal(t, "up", d.String())
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
