package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-moonboard/internal/frame"
	"github.com/coreman2200/funtimes-moonboard/internal/layout"
	"github.com/coreman2200/funtimes-moonboard/internal/led"
	"github.com/coreman2200/funtimes-moonboard/internal/transport"
)

type Grid struct {
	Rows    int `yaml:"rows"`
	Columns int `yaml:"columns"`
	Pixels  int `yaml:"pixels"` // LEDs on the string, >= rows*columns
}

type Wiring struct {
	StartHold string `yaml:"start_hold"` // hold wired to LED 0, e.g. K1
	Direction string `yaml:"direction"`  // up | down | left | right
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0, empty picks the first
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2500000
}

type BLE struct {
	LocalName string `yaml:"local_name"`
}

type Serial struct {
	Path string                `yaml:"path"`
	Port transport.PortOptions `yaml:",inline"`
}

type HTTP struct {
	Addr string `yaml:"addr"` // empty disables the websocket/health server
}

type Config struct {
	Driver     string  `yaml:"driver"` // "spi" | "console" | "sim"
	ColorOrder string  `yaml:"color_order"`
	Brightness float64 `yaml:"brightness"`
	SPI        SPI     `yaml:"spi,omitempty"`

	Grid   Grid   `yaml:"grid"`
	Wiring Wiring `yaml:"wiring"`

	Transport   string `yaml:"transport"` // "ble" | "serial" | "stdin"
	BLE         BLE    `yaml:"ble,omitempty"`
	Serial      Serial `yaml:"serial,omitempty"`
	MaxFrameLen int    `yaml:"max_frame_len"`

	HTTP HTTP `yaml:"http"`
}

// Default matches the deployed board: 11x18 holds, 198 LEDs starting at K1
// and running up the first column.
func Default() Config {
	return Config{
		Driver:      led.KindSPI,
		ColorOrder:  "GRB",
		Brightness:  1,
		SPI:         SPI{SpeedHz: 2500000},
		Grid:        Grid{Rows: layout.Rows, Columns: layout.Columns, Pixels: layout.Rows * layout.Columns},
		Wiring:      Wiring{StartHold: "K1", Direction: "up"},
		Transport:   "ble",
		BLE:         BLE{LocalName: transport.DefaultLocalName},
		Serial:      Serial{Path: "/dev/ttyUSB0", Port: transport.PortOptions{BaudRate: 9600}},
		MaxFrameLen: frame.MaxLen,
		HTTP:        HTTP{Addr: ":8080"},
	}
}

// Load reads path over the defaults, so a partial file only overrides what
// it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LayoutGrid is the hold grid described by c.
func (c *Config) LayoutGrid() layout.Grid {
	return layout.Grid{Columns: c.Grid.Columns, Rows: c.Grid.Rows}
}

// Validate checks everything that can be checked without touching hardware.
func (c *Config) Validate() error {
	var errs []error
	if c.Grid.Rows <= 0 || c.Grid.Columns <= 0 {
		errs = append(errs, fmt.Errorf("grid %dx%d must be positive", c.Grid.Columns, c.Grid.Rows))
	} else if c.Grid.Columns > 26 {
		errs = append(errs, fmt.Errorf("grid has %d columns, holds only go up to Z", c.Grid.Columns))
	}
	if c.Grid.Pixels < c.Grid.Rows*c.Grid.Columns {
		errs = append(errs, fmt.Errorf("%d pixels cannot cover %d holds", c.Grid.Pixels, c.Grid.Rows*c.Grid.Columns))
	}
	if _, err := layout.ParseDirection(c.Wiring.Direction); err != nil {
		errs = append(errs, err)
	}
	switch c.Driver {
	case led.KindSPI, led.KindConsole, led.KindSim:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errs = append(errs, fmt.Errorf("brightness %v outside 0..1", c.Brightness))
	}
	switch strings.ToLower(c.Transport) {
	case "ble", "stdin":
	case "serial":
		if c.Serial.Path == "" {
			errs = append(errs, errors.New("serial transport needs serial.path"))
		}
		if _, err := c.Serial.Port.Normalize(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if c.MaxFrameLen <= 0 {
		errs = append(errs, fmt.Errorf("max_frame_len %d must be positive", c.MaxFrameLen))
	}
	return errors.Join(errs...)
}
