package selftest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-moonboard/internal/layout"
	"github.com/coreman2200/funtimes-moonboard/internal/led"
	"github.com/coreman2200/funtimes-moonboard/internal/render"
)

func newGrid(t *testing.T) (*render.Grid, *led.Sim) {
	t.Helper()
	m, err := layout.New(layout.Moonboard, "K1", layout.Up)
	require.NoError(t, err)
	sim := led.NewSim(m.Len(), zerolog.Nop())
	g, err := render.NewGrid(m, m.Len(), sim)
	require.NoError(t, err)
	return g, sim
}

func lit(sim *led.Sim, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		if sim.Lit(i) {
			out = append(out, i)
		}
	}
	return out
}

func TestIndexSweepFollowsTheStrip(t *testing.T) {
	g, sim := newGrid(t)
	r := NewRunner(Plan{Kind: IndexSweep})
	for i := 0; i < 198; i++ {
		more, err := r.Step(g)
		require.NoError(t, err)
		require.True(t, more)
		require.NoError(t, g.Render())
		require.Equal(t, []int{i}, lit(sim, 198), "step %d", i)
	}
	h, ok := r.Current(g.Layout())
	require.True(t, ok)
	assert.Equal(t, "A18", h, "last LED on a K1/up string")

	more, err := r.Step(g)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestHoldSweepGoesRowByRow(t *testing.T) {
	g, _ := newGrid(t)
	r := NewRunner(Plan{Kind: HoldSweep})
	var holds []string
	for i := 0; i < 12; i++ {
		_, err := r.Step(g)
		require.NoError(t, err)
		h, ok := r.Current(g.Layout())
		require.True(t, ok)
		holds = append(holds, h)
	}
	assert.Equal(t, []string{"A1", "B1", "C1", "D1", "E1", "F1", "G1", "H1", "I1", "J1", "K1", "A2"}, holds)
	assert.Equal(t, render.White, g.Get(0, 16))
}

func TestRGBCycles(t *testing.T) {
	g, _ := newGrid(t)
	r := NewRunner(Plan{Kind: RGBTest, Cycles: 2})
	var seen []render.Color
	for {
		more, err := r.Step(g)
		require.NoError(t, err)
		if !more {
			break
		}
		seen = append(seen, g.Get(5, 5))
	}
	assert.Equal(t, []render.Color{render.Red, render.Green, render.Blue, render.Red, render.Green, render.Blue}, seen)
	_, ok := r.Current(g.Layout())
	assert.False(t, ok)
}

func TestRunBlanksWhenDone(t *testing.T) {
	g, sim := newGrid(t)
	steps := 0
	err := NewRunner(Plan{Kind: RGBTest}).Run(context.Background(), g, time.Millisecond, func(int) { steps++ })
	require.NoError(t, err)
	assert.Equal(t, 3, steps)
	assert.Equal(t, 4, sim.Frames())
	assert.Empty(t, lit(sim, 198))
}

func TestRunStopsOnCancel(t *testing.T) {
	g, sim := newGrid(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRunner(Plan{Kind: IndexSweep}).Run(ctx, g, time.Hour, nil)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Empty(t, lit(sim, 198))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("hold_sweep")
	require.NoError(t, err)
	assert.Equal(t, HoldSweep, k)
	_, err = ParseKind("plane_z")
	assert.Error(t, err)
}
