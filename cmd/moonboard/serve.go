package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-moonboard/internal/app"
	"github.com/coreman2200/funtimes-moonboard/internal/ws"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive problems and display them until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(g.debug)
			cfg, err := g.loadConfig(cmd, log)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}
			log.Info().
				Str("driver", cfg.Driver).
				Str("transport", cfg.Transport).
				Str("wiring", cfg.Wiring.StartHold+"/"+cfg.Wiring.Direction).
				Int("pixels", cfg.Grid.Pixels).
				Float64("brightness", cfg.Brightness).
				Msg("configuration")

			drv, err := app.OpenDriver(cfg, log.With().Str("component", "led").Logger())
			if err != nil {
				return fmt.Errorf("open %s driver: %w", cfg.Driver, err)
			}
			defer func() {
				if err := drv.Close(); err != nil {
					log.Warn().Err(err).Msg("close driver")
				}
			}()

			core, err := app.InitCore(cfg, drv, log)
			if err != nil {
				return err
			}
			defer core.Broker.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := app.NewSource(cfg, os.Stdin, log)
			if err != nil {
				return err
			}
			events := make(chan []byte, 64)
			if err := src.Start(ctx, events); err != nil {
				return fmt.Errorf("start %s transport: %w", cfg.Transport, err)
			}
			defer src.Close()
			go app.ResumeOnProblem(ctx, core.Broker, src, log)

			if cfg.HTTP.Addr != "" {
				srv := &http.Server{
					Addr:              cfg.HTTP.Addr,
					Handler:           ws.NewServer(core.Broker, core.Controller.Stats, log.With().Str("component", "ws").Logger()).Handler(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					log.Info().Str("addr", cfg.HTTP.Addr).Msg("http listening")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("http server")
					}
				}()
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					_ = srv.Shutdown(sctx)
				}()
			}

			err = core.Controller.Run(ctx, events)
			s := core.Controller.Stats()
			log.Info().
				Uint64("problems", s.Problems).
				Uint64("rejected", s.Rejected).
				Uint64("corruptions", s.Corruptions).
				Msg("stopped")
			if err == nil && ctx.Err() == nil && !strings.EqualFold(cfg.Transport, "stdin") {
				return fmt.Errorf("%s transport stopped delivering", cfg.Transport)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address for /problems and /health (empty disables)")
	return cmd
}
