package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-moonboard/internal/config"
	"github.com/coreman2200/funtimes-moonboard/internal/layout"
	"github.com/coreman2200/funtimes-moonboard/internal/led"
	"github.com/coreman2200/funtimes-moonboard/internal/pubsub"
	"github.com/coreman2200/funtimes-moonboard/internal/render"
	"github.com/coreman2200/funtimes-moonboard/internal/transport"
)

type Core struct {
	Layout     *layout.Map
	Display    *render.Grid
	Broker     *pubsub.Broker
	Controller *Controller
}

// OpenDriver opens the LED sink named by cfg.Driver.
func OpenDriver(cfg *config.Config, log zerolog.Logger) (led.Driver, error) {
	return led.Open(cfg.Driver, cfg.SPI.Dev, cfg.SPI.SpeedHz, led.Options{
		Count:      cfg.Grid.Pixels,
		ColorOrder: cfg.ColorOrder,
		Brightness: cfg.Brightness,
	}, log)
}

// BuildLayout builds the wiring map. An inconsistent wiring is fatal.
func BuildLayout(cfg *config.Config) (*layout.Map, error) {
	dir, err := layout.ParseDirection(cfg.Wiring.Direction)
	if err != nil {
		return nil, err
	}
	return layout.New(cfg.LayoutGrid(), cfg.Wiring.StartHold, dir)
}

// InitCore wires layout, display, broker and controller around drv.
func InitCore(cfg *config.Config, drv render.Driver, log zerolog.Logger) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	m, err := BuildLayout(cfg)
	if err != nil {
		return nil, err
	}
	display, err := render.NewGrid(m, cfg.Grid.Pixels, drv)
	if err != nil {
		return nil, err
	}
	broker := pubsub.NewBroker()
	ctl, err := NewController(Options{
		Grid:        cfg.LayoutGrid(),
		Display:     display,
		Publisher:   broker,
		MaxFrameLen: cfg.MaxFrameLen,
		Logger:      log.With().Str("component", "controller").Logger(),
	})
	if err != nil {
		return nil, err
	}
	return &Core{Layout: m, Display: display, Broker: broker, Controller: ctl}, nil
}

// NewSource builds the inbound transport. stdin is only used by "stdin".
func NewSource(cfg *config.Config, stdin io.Reader, log zerolog.Logger) (transport.Source, error) {
	log = log.With().Str("component", "transport").Logger()
	switch strings.ToLower(cfg.Transport) {
	case "ble":
		return transport.NewBLE(cfg.BLE.LocalName, log), nil
	case "serial":
		return transport.NewSerial(cfg.Serial.Path, cfg.Serial.Port, log), nil
	case "stdin":
		if stdin == nil {
			return nil, errors.New("stdin transport without input")
		}
		return transport.NewLines(stdin, log), nil
	}
	return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}

// ResumeOnProblem re-arms src after every published problem, for sources
// that need it. It returns when ctx is done or the broker closes.
func ResumeOnProblem(ctx context.Context, b *pubsub.Broker, src transport.Source, log zerolog.Logger) {
	r, ok := src.(transport.Resumer)
	if !ok {
		return
	}
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := r.Resume(); err != nil {
				log.Warn().Err(err).Msg("resume transport")
			}
		}
	}
}
