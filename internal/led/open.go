package led

import (
	"fmt"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
)

// Driver names accepted by Open.
const (
	KindSPI     = "spi"
	KindConsole = "console"
	KindSim     = "sim"
)

// Open selects a driver by name. spiDev and speedHz only matter for "spi".
func Open(kind, spiDev string, speedHz int, o Options, log zerolog.Logger) (Driver, error) {
	switch kind {
	case KindSPI:
		return OpenSPI(spiDev, physic.Frequency(speedHz)*physic.Hertz, o)
	case KindConsole:
		return NewConsole(o)
	case KindSim, "":
		return NewSim(o.Count, log), nil
	}
	return nil, fmt.Errorf("unknown driver %q", kind)
}
