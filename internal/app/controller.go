package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-moonboard/internal/frame"
	"github.com/coreman2200/funtimes-moonboard/internal/layout"
	"github.com/coreman2200/funtimes-moonboard/internal/problem"
	"github.com/coreman2200/funtimes-moonboard/internal/render"
)

// Publisher receives every problem after it is on the wall.
type Publisher interface {
	Publish(problem.Problem)
}

type Options struct {
	Grid        layout.Grid
	Display     *render.Grid
	Publisher   Publisher // optional
	MaxFrameLen int
	Logger      zerolog.Logger
}

// Stats are safe to read from any goroutine.
type Stats struct {
	Chunks      uint64 `json:"chunks"`
	Frames      uint64 `json:"frames"`
	Problems    uint64 `json:"problems"`
	Rejected    uint64 `json:"rejected"`
	Corruptions uint64 `json:"corruptions"`
}

// Controller owns the decoder and the display. All of its methods except
// Stats must be called from one goroutine, which Run provides.
type Controller struct {
	grid    layout.Grid
	display *render.Grid
	pub     Publisher
	dec     *frame.Decoder
	log     zerolog.Logger

	chunks, frames, problems, rejected, corrupt atomic.Uint64
}

func NewController(o Options) (*Controller, error) {
	if o.Display == nil {
		return nil, errors.New("nil display")
	}
	if o.MaxFrameLen <= 0 {
		o.MaxFrameLen = frame.MaxLen
	}
	return &Controller{
		grid:    o.Grid,
		display: o.Display,
		pub:     o.Publisher,
		dec:     frame.NewDecoder(o.MaxFrameLen),
		log:     o.Logger,
	}, nil
}

func (c *Controller) Stats() Stats {
	return Stats{
		Chunks:      c.chunks.Load(),
		Frames:      c.frames.Load(),
		Problems:    c.problems.Load(),
		Rejected:    c.rejected.Load(),
		Corruptions: c.corrupt.Load(),
	}
}

// HandleWrite feeds one inbound chunk. Bad frames and bad problems are logged
// and skipped; only a failure to drive the LEDs is returned.
func (c *Controller) HandleWrite(chunk []byte) error {
	c.chunks.Add(1)
	before := c.dec.Corruptions()
	frames := c.dec.Feed(chunk)
	if n := c.dec.Corruptions() - before; n > 0 {
		c.corrupt.Add(uint64(n))
		c.log.Debug().Err(c.dec.LastError()).Int("dropped", n).Msg("frame discarded, resyncing")
	}

	for _, f := range frames {
		c.frames.Add(1)
		p, err := problem.Decode(f, c.grid)
		if err != nil {
			c.rejected.Add(1)
			c.log.Warn().Err(err).Int("len", len(f)).Msg("rejected frame")
			continue
		}
		if err := c.show(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) show(p problem.Problem) error {
	if err := c.display.Apply(p); err != nil {
		// Decode already validated against the same grid.
		c.rejected.Add(1)
		c.log.Warn().Err(err).Msg("problem does not fit display")
		return nil
	}
	if err := c.display.Render(); err != nil {
		return fmt.Errorf("render problem: %w", err)
	}
	c.problems.Add(1)
	c.log.Info().Strs("start", p.Start).Strs("moves", p.Moves).Strs("top", p.Top).Msg("problem displayed")
	if c.pub != nil {
		c.pub.Publish(p)
	}
	return nil
}

// Run dispatches chunks from events until ctx is done, events is closed, or
// the display fails. The wall is always blanked on the way out.
func (c *Controller) Run(ctx context.Context, events <-chan []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch panic: %v", r)
			c.log.Error().Interface("panic", r).Msg("dispatch loop crashed")
		}
		c.blank()
	}()

	c.log.Info().Msg("waiting for problems")
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.HandleWrite(chunk); err != nil {
				return err
			}
		}
	}
}

func (c *Controller) blank() {
	c.display.Clear()
	if err := c.display.Render(); err != nil {
		c.log.Warn().Err(err).Msg("final blank failed")
		return
	}
	c.log.Info().Msg("display cleared")
}
