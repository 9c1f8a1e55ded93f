package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-moonboard/internal/app"
	"github.com/coreman2200/funtimes-moonboard/internal/render"
	"github.com/coreman2200/funtimes-moonboard/internal/selftest"
)

func newSweepCmd(g *globals) *cobra.Command {
	var interval time.Duration
	var cycles int
	kinds := make([]string, 0, len(selftest.Kinds()))
	for _, k := range selftest.Kinds() {
		kinds = append(kinds, string(k))
	}
	cmd := &cobra.Command{
		Use:       "sweep [" + strings.Join(kinds, "|") + "]",
		Short:     "Run a wiring test pattern on the LEDs",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(g.debug)
			kind := selftest.IndexSweep
			if len(args) == 1 {
				k, err := selftest.ParseKind(args[0])
				if err != nil {
					return err
				}
				kind = k
			}
			cfg, err := g.loadConfig(cmd, log)
			if err != nil {
				return err
			}
			m, err := app.BuildLayout(cfg)
			if err != nil {
				return err
			}
			drv, err := app.OpenDriver(cfg, log)
			if err != nil {
				return fmt.Errorf("open %s driver: %w", cfg.Driver, err)
			}
			defer drv.Close()
			grid, err := render.NewGrid(m, cfg.Grid.Pixels, drv)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := selftest.NewRunner(selftest.Plan{Kind: kind, Cycles: cycles})
			log.Info().Str("test", string(kind)).Dur("interval", interval).Msg("sweep started")
			err = r.Run(ctx, grid, interval, func(step int) {
				if h, ok := r.Current(m); ok {
					log.Info().Int("step", step).Str("hold", h).Msg("lit")
				}
			})
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("sweep interrupted")
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 250*time.Millisecond, "time each step stays lit")
	cmd.Flags().IntVar(&cycles, "cycles", 1, "rgb_channels passes")
	return cmd
}
