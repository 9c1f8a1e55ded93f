package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-moonboard/internal/config"
)

var exampleUsage = strings.TrimSpace(`
  moonboard config init --config /etc/moonboard.yaml
  moonboard serve --config /etc/moonboard.yaml
  moonboard serve --driver console --transport stdin < frames.hex
  moonboard layout --start K1 --direction up
  moonboard sweep index_sweep
  moonboard send --port /dev/ttyUSB0 --start A5 --moves B8,C11 --top K18
`)

// globals shared by every subcommand
type globals struct {
	cfgPath    string
	debug      bool
	brightness float64
	driver     string
	transport  string
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

// loadConfig layers defaults, the YAML file and any flag the user set.
func (g *globals) loadConfig(cmd *cobra.Command, log zerolog.Logger) (*config.Config, error) {
	cfg := config.Default()
	c, err := config.Load(g.cfgPath)
	switch {
	case err == nil:
		cfg = *c
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		log.Debug().Str("path", g.cfgPath).Msg("no config file, using defaults")
	default:
		return nil, fmt.Errorf("load config: %w", err)
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "brightness":
			cfg.Brightness = g.brightness
		case "driver":
			cfg.Driver = g.driver
		case "transport":
			cfg.Transport = g.transport
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	g := &globals{}

	root := &cobra.Command{
		Use:           "moonboard",
		Short:         "Light Moonboard problems received over Bluetooth on an LED string",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.cfgPath, "config", "config.yaml", "path to config.yaml")
	pf.BoolVar(&g.debug, "debug", false, "debug logging")
	pf.Float64Var(&g.brightness, "brightness", 1, "global brightness 0..1")
	pf.StringVar(&g.driver, "driver", "spi", "LED driver: spi | console | sim")
	pf.StringVar(&g.transport, "transport", "ble", "inbound transport: ble | serial | stdin")

	root.AddCommand(
		newServeCmd(g),
		newLayoutCmd(g),
		newSweepCmd(g),
		newSendCmd(g),
		newConfigCmd(g),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
