package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// DefaultSPIFreq drives WS2812 timing with 3 SPI bits per data bit.
const DefaultSPIFreq = 2500 * physic.KiloHertz

// NRZ drives a WS2812 strip over SPI.
type NRZ struct {
	mu    sync.Mutex
	dev   *nrzled.Dev
	port  spi.PortCloser
	count int
	enc   *encoder
}

// OpenSPI initializes the host, opens spiDev ("" picks the first port) and
// returns a strip driver.
func OpenSPI(spiDev string, freq physic.Frequency, o Options) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", spiDev, err)
	}
	d, err := NewNRZ(p, freq, o)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	d.port = p
	return d, nil
}

// NewNRZ wraps an already opened SPI port.
func NewNRZ(p spi.Port, freq physic.Frequency, o Options) (*NRZ, error) {
	if o.Count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", o.Count)
	}
	if freq == 0 {
		freq = DefaultSPIFreq
	}
	enc, err := newEncoder(o.ColorOrder, o.Brightness)
	if err != nil {
		return nil, err
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: o.Count, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZ{dev: d, count: o.Count, enc: enc}, nil
}

func (n *NRZ) String() string { return n.dev.String() }

// Write takes len(rgb)==3*count.
func (n *NRZ) Write(rgb []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return fmt.Errorf("spi closed")
	}
	if len(rgb) != n.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), n.count)
	}
	if _, err := n.dev.Write(n.enc.encode(rgb)); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port.
func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return nil
	}
	err := n.dev.Halt()
	n.dev = nil
	if n.port != nil {
		if cerr := n.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
