// Package selftest drives wiring check patterns onto the wall.
package selftest

import (
	"context"
	"fmt"
	"time"

	"github.com/coreman2200/funtimes-moonboard/internal/layout"
	"github.com/coreman2200/funtimes-moonboard/internal/render"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep" // one LED at a time in strip order
	HoldSweep  Kind = "hold_sweep"  // one hold at a time, A1, B1, ... row by row from the bottom
	RGBTest    Kind = "rgb_channels"
)

func Kinds() []Kind { return []Kind{IndexSweep, HoldSweep, RGBTest} }

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown test %q", s)
}

type Plan struct {
	Kind   Kind
	Cycles int // RGBTest only; 0 means one pass through the three channels
}

type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step draws the next pattern onto g; returns false when complete.
func (r *Runner) Step(g *render.Grid) (bool, error) {
	m := g.Layout()
	dim := m.Grid()
	n := m.Len()
	g.Clear()

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= n {
			return false, nil
		}
		c, err := m.PixelToCoordinate(r.step)
		if err != nil {
			return false, err
		}
		if err := g.Set(render.At(c.X, c.Y), render.White); err != nil {
			return false, err
		}
	case HoldSweep:
		if r.step >= n {
			return false, nil
		}
		x := r.step % dim.Columns
		y := dim.Rows - 1 - r.step/dim.Columns
		if err := g.Set(render.At(x, y), render.White); err != nil {
			return false, err
		}
	case RGBTest:
		cycles := r.plan.Cycles
		if cycles <= 0 {
			cycles = 1
		}
		if r.step >= 3*cycles {
			return false, nil
		}
		g.Fill([]render.Color{render.Red, render.Green, render.Blue}[r.step%3])
	default:
		return false, nil
	}
	r.step++
	return true, nil
}

// Current is the hold lit by the last sweep step.
func (r *Runner) Current(m *layout.Map) (string, bool) {
	if r.step == 0 {
		return "", false
	}
	dim := m.Grid()
	i := r.step - 1
	var x, y int
	switch r.plan.Kind {
	case IndexSweep:
		c, err := m.PixelToCoordinate(i)
		if err != nil {
			return "", false
		}
		x, y = c.X, c.Y
	case HoldSweep:
		x, y = i%dim.Columns, dim.Rows-1-i/dim.Columns
	default:
		return "", false
	}
	h, err := dim.HoldAt(x, y)
	return h, err == nil
}

// Run steps the plan every interval, rendering each step, and blanks the
// wall when done. onStep may be nil.
func (r *Runner) Run(ctx context.Context, g *render.Grid, interval time.Duration, onStep func(step int)) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	defer func() {
		g.Clear()
		_ = g.Render()
	}()
	for {
		more, err := r.Step(g)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := g.Render(); err != nil {
			return fmt.Errorf("render step %d: %w", r.step, err)
		}
		if onStep != nil {
			onStep(r.step)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}
