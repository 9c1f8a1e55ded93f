package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-moonboard/internal/config"
	"github.com/coreman2200/funtimes-moonboard/internal/frame"
	"github.com/coreman2200/funtimes-moonboard/internal/layout"
	"github.com/coreman2200/funtimes-moonboard/internal/led"
	"github.com/coreman2200/funtimes-moonboard/internal/problem"
	"github.com/coreman2200/funtimes-moonboard/internal/pubsub"
	"github.com/coreman2200/funtimes-moonboard/internal/render"
	"github.com/coreman2200/funtimes-moonboard/internal/transport"
)

const scenarioB = `{"START":["A18"],"MOVES":["B16"],"TOP":["K1"]}`

type stripDriver struct {
	mu     sync.Mutex
	last   []byte
	writes int
	err    error
	panics int
}

func (d *stripDriver) Write(rgb []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panics > 0 {
		d.panics--
		panic("strip on fire")
	}
	if d.err != nil {
		return d.err
	}
	d.writes++
	d.last = append(d.last[:0], rgb...)
	return nil
}

func (d *stripDriver) dark() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.last {
		if b != 0 {
			return false
		}
	}
	return true
}

type recorder struct{ got []problem.Problem }

func (r *recorder) Publish(p problem.Problem) { r.got = append(r.got, p) }

func newController(t *testing.T) (*Controller, *render.Grid, *stripDriver, *recorder) {
	t.Helper()
	m, err := layout.New(layout.Moonboard, "K1", layout.Up)
	require.NoError(t, err)
	drv := &stripDriver{}
	g, err := render.NewGrid(m, 198, drv)
	require.NoError(t, err)
	pub := &recorder{}
	c, err := NewController(Options{Grid: layout.Moonboard, Display: g, Publisher: pub, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return c, g, drv, pub
}

func wire(payload string) []byte { return frame.Encode([]byte(payload)) }

func litHolds(t *testing.T, g *render.Grid) map[string]render.Color {
	t.Helper()
	out := map[string]render.Color{}
	dim := g.Layout().Grid()
	for y := 0; y < dim.Rows; y++ {
		for x := 0; x < dim.Columns; x++ {
			if c := g.Get(x, y); c != render.Black {
				h, err := dim.HoldAt(x, y)
				require.NoError(t, err)
				out[h] = c
			}
		}
	}
	return out
}

func TestFragmentedProblemIsDisplayedAndPublished(t *testing.T) {
	c, g, drv, pub := newController(t)

	for _, chunk := range frame.Split(wire(scenarioB), 1) {
		require.NoError(t, c.HandleWrite(chunk))
	}

	assert.Equal(t, map[string]render.Color{"A18": render.Green, "B16": render.Blue, "K1": render.Red}, litHolds(t, g))
	assert.Equal(t, 1, drv.writes)
	assert.Equal(t, []byte{200, 0, 0}, drv.last[0:3], "K1 is LED 0")
	require.Len(t, pub.got, 1)
	assert.Equal(t, []string{"A18"}, pub.got[0].Start)

	s := c.Stats()
	assert.Equal(t, uint64(len(wire(scenarioB))), s.Chunks)
	assert.Equal(t, uint64(1), s.Frames)
	assert.Equal(t, uint64(1), s.Problems)
}

func TestInvalidHoldLeavesDisplayUnchanged(t *testing.T) {
	c, g, drv, pub := newController(t)
	require.NoError(t, c.HandleWrite(wire(scenarioB)))
	before := litHolds(t, g)

	require.NoError(t, c.HandleWrite(wire(`{"START":["A1"],"MOVES":[],"TOP":["Z99"]}`)))
	require.NoError(t, c.HandleWrite(wire(`not json`)))

	assert.Equal(t, before, litHolds(t, g))
	assert.Equal(t, 1, drv.writes)
	assert.Len(t, pub.got, 1)
	assert.Equal(t, uint64(2), c.Stats().Rejected)
}

func TestResyncAfterCorruption(t *testing.T) {
	c, g, _, pub := newController(t)
	bad := wire(`{"START":["C3"],"MOVES":[],"TOP":[]}`)
	bad = append(bad[:len(bad)/2], frame.Esc, 0x01)

	stream := append(bad, wire(`{"START":["E5"],"MOVES":[],"TOP":["E18"]}`)...)
	require.NoError(t, c.HandleWrite(stream))

	assert.Equal(t, map[string]render.Color{"E5": render.Green, "E18": render.Red}, litHolds(t, g))
	assert.Len(t, pub.got, 1)
	assert.Equal(t, uint64(1), c.Stats().Corruptions)
}

func TestSeveralFramesInOneChunk(t *testing.T) {
	c, g, drv, pub := newController(t)
	stream := append(wire(scenarioB), wire(`{"START":["F6"],"MOVES":[],"TOP":[]}`)...)
	require.NoError(t, c.HandleWrite(stream))
	assert.Len(t, pub.got, 2)
	assert.Equal(t, 2, drv.writes)
	assert.Equal(t, map[string]render.Color{"F6": render.Green}, litHolds(t, g))
}

func TestRenderFailureIsFatal(t *testing.T) {
	c, _, drv, pub := newController(t)
	drv.err = errors.New("spi gone")
	err := c.HandleWrite(wire(scenarioB))
	assert.True(t, errors.Is(err, drv.err))
	assert.Empty(t, pub.got)
}

func TestRunBlanksOnCancel(t *testing.T) {
	c, _, drv, _ := newController(t)
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan []byte)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, events) }()

	events <- wire(scenarioB)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 2, drv.writes)
	assert.True(t, drv.dark())
}

func TestRunReturnsWhenEventsClose(t *testing.T) {
	c, _, drv, _ := newController(t)
	events := make(chan []byte, 1)
	events <- wire(scenarioB)
	close(events)
	require.NoError(t, c.Run(context.Background(), events))
	assert.True(t, drv.dark())
	assert.Equal(t, uint64(1), c.Stats().Problems)
}

func TestRunEndsWhenSerialInputEnds(t *testing.T) {
	c, g, drv, _ := newController(t)
	src := transport.NewReaderSource(io.NopCloser(bytes.NewReader(wire(scenarioB))), zerolog.Nop())
	events := make(chan []byte, 4)
	require.NoError(t, src.Start(context.Background(), events))

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), events) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept waiting on a finished source")
	}
	assert.Equal(t, uint64(1), c.Stats().Problems)
	assert.Empty(t, litHolds(t, g))
	assert.True(t, drv.dark())
}

func TestRunSurfacesRenderFailure(t *testing.T) {
	c, _, drv, _ := newController(t)
	drv.err = errors.New("bus fault")
	events := make(chan []byte, 1)
	events <- wire(scenarioB)
	err := c.Run(context.Background(), events)
	assert.True(t, errors.Is(err, drv.err))
}

func TestRunRecoversPanicAndStillBlanks(t *testing.T) {
	c, _, drv, _ := newController(t)
	drv.panics = 1
	events := make(chan []byte, 1)
	events <- wire(scenarioB)
	err := c.Run(context.Background(), events)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strip on fire")
	assert.Equal(t, 1, drv.writes, "cleanup render after the panic")
	assert.True(t, drv.dark())
}

func TestNewControllerNeedsDisplay(t *testing.T) {
	_, err := NewController(Options{Grid: layout.Moonboard})
	assert.Error(t, err)
}

func TestInitCoreWithSim(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = led.KindSim
	sim := led.NewSim(cfg.Grid.Pixels, zerolog.Nop())
	core, err := InitCore(&cfg, sim, zerolog.Nop())
	require.NoError(t, err)

	_, ch := core.Broker.Subscribe()
	require.NoError(t, core.Controller.HandleWrite(wire(scenarioB)))
	got := <-ch
	assert.Equal(t, []string{"K1"}, got.Top)
	assert.True(t, sim.Lit(0))
	assert.False(t, sim.Lit(1))
}

func TestInitCoreRejectsBadWiring(t *testing.T) {
	cfg := config.Default()
	cfg.Wiring.StartHold = "F9"
	_, err := InitCore(&cfg, &stripDriver{}, zerolog.Nop())
	assert.True(t, errors.Is(err, layout.ErrInconsistentWiring))

	cfg = config.Default()
	cfg.Grid.Pixels = 10
	_, err = InitCore(&cfg, &stripDriver{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()
	for kind, want := range map[string]any{
		"ble":    &transport.BLE{},
		"serial": &transport.Serial{},
		"stdin":  &transport.Lines{},
	} {
		cfg.Transport = kind
		src, err := NewSource(&cfg, strings.NewReader(""), zerolog.Nop())
		require.NoError(t, err, kind)
		assert.IsType(t, want, src, kind)
	}
	cfg.Transport = "stdin"
	_, err := NewSource(&cfg, nil, zerolog.Nop())
	assert.Error(t, err)
	cfg.Transport = "carrier pigeon"
	_, err = NewSource(&cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}

type resumable struct {
	transport.Source
	resumed chan struct{}
}

func (r *resumable) Resume() error {
	r.resumed <- struct{}{}
	return nil
}

func TestResumeOnProblem(t *testing.T) {
	b := pubsub.NewBroker()
	src := &resumable{resumed: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ResumeOnProblem(ctx, b, src, zerolog.Nop())
		close(done)
	}()

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	b.Publish(problem.Problem{Start: []string{"A1"}})
	select {
	case <-src.resumed:
	case <-time.After(2 * time.Second):
		t.Fatal("source was not resumed")
	}
	cancel()
	<-done
	assert.Zero(t, b.Subscribers())
}

func TestResumeOnProblemIgnoresPlainSources(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = "stdin"
	src, err := NewSource(&cfg, strings.NewReader(""), zerolog.Nop())
	require.NoError(t, err)
	b := pubsub.NewBroker()
	ResumeOnProblem(context.Background(), b, src, zerolog.Nop())
	assert.Zero(t, b.Subscribers())
}
