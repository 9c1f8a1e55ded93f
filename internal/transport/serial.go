package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// PortOptions describes the serial connection, for example to a BLE UART
// bridge module.
type PortOptions struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
}

var parityNames = map[string]string{
	"": "N", "N": "N", "NONE": "N",
	"E": "E", "EVEN": "E",
	"O": "O", "ODD": "O",
}

// Normalize fills in 9600 8N1 for anything unset and rejects what the
// bridge cannot do.
func (o PortOptions) Normalize() (PortOptions, error) {
	if o.BaudRate <= 0 {
		o.BaudRate = 9600
	}
	if o.DataBits == 0 {
		o.DataBits = 8
	}
	if o.StopBits == 0 {
		o.StopBits = 1
	}
	parity, ok := parityNames[strings.ToUpper(strings.TrimSpace(o.Parity))]
	switch {
	case o.DataBits < 5 || o.DataBits > 8:
		return o, fmt.Errorf("data bits %d not in 5..8", o.DataBits)
	case o.StopBits != 1 && o.StopBits != 2:
		return o, fmt.Errorf("stop bits %d, want 1 or 2", o.StopBits)
	case !ok:
		return o, fmt.Errorf("parity %q, want N, E or O", o.Parity)
	}
	o.Parity = parity
	return o, nil
}

func (o PortOptions) SerialMode() (*serial.Mode, error) {
	n, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: n.BaudRate,
		DataBits: n.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch n.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	if n.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode, nil
}

// OpenPort opens a real serial port.
func OpenPort(path string, opts PortOptions) (serial.Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return p, nil
}

// Serial reads chunks from a serial port (or any reader, for tests).
type Serial struct {
	path string
	opts PortOptions
	open func(path string, opts PortOptions) (io.ReadCloser, error)
	log  zerolog.Logger

	port io.ReadCloser
	mtu  int
}

func NewSerial(path string, opts PortOptions, log zerolog.Logger) *Serial {
	return &Serial{
		path: path,
		opts: opts,
		open: func(path string, opts PortOptions) (io.ReadCloser, error) { return OpenPort(path, opts) },
		log:  log,
		mtu:  256,
	}
}

// NewReaderSource wraps r; Close closes it.
func NewReaderSource(r io.ReadCloser, log zerolog.Logger) *Serial {
	return &Serial{
		path: "reader",
		open: func(string, PortOptions) (io.ReadCloser, error) { return r, nil },
		log:  log,
		mtu:  256,
	}
}

// Start opens the port and reads until it fails or hits EOF, then closes
// out. An unplugged bridge therefore ends the dispatch loop.
func (s *Serial) Start(ctx context.Context, out chan<- []byte) error {
	opts, err := s.opts.Normalize()
	if err != nil {
		return err
	}
	p, err := s.open(s.path, opts)
	if err != nil {
		return err
	}
	s.port = p
	s.log.Info().Str("path", s.path).Int("baud", opts.BaudRate).
		Str("frame", fmt.Sprintf("%d%s%d", opts.DataBits, opts.Parity, opts.StopBits)).
		Msg("serial transport started")

	go func() {
		defer close(out)
		buf := make([]byte, s.mtu)
		for {
			n, err := p.Read(buf)
			if n > 0 && !deliver(ctx, out, buf[:n]) {
				return
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					s.log.Warn().Str("path", s.path).Msg("serial input ended")
				} else if ctx.Err() == nil {
					s.log.Error().Err(err).Str("path", s.path).Msg("serial read failed")
				}
				return
			}
		}
	}()
	return nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
