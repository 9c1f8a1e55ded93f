package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-moonboard/internal/frame"
	"github.com/coreman2200/funtimes-moonboard/internal/problem"
	"github.com/coreman2200/funtimes-moonboard/internal/transport"
)

// BLE writes without response carry 20 bytes with the default MTU.
const defaultMTU = 20

func newSendCmd(g *globals) *cobra.Command {
	var (
		port         string
		start, moves string
		top          string
		mtu          int
		gap          time.Duration
		opts         transport.PortOptions
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Frame a problem and write it to a serial port, for bench testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(g.debug)
			p := problem.Problem{
				Start: problem.ParseList(start),
				Moves: problem.ParseList(moves),
				Top:   problem.ParseList(top),
			}
			payload, err := problem.Encode(p)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig(cmd, log)
			if err != nil {
				return err
			}
			// Refuse what the receiver would reject.
			if _, err := problem.Decode(payload, cfg.LayoutGrid()); err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Serial.Path
			}
			if !cmd.Flags().Changed("baud") {
				opts = cfg.Serial.Port
			}

			sp, err := transport.OpenPort(port, opts)
			if err != nil {
				return err
			}
			defer sp.Close()

			chunks := frame.Split(frame.Encode(payload), mtu)
			for i, c := range chunks {
				if _, err := sp.Write(c); err != nil {
					return fmt.Errorf("write chunk %d/%d: %w", i+1, len(chunks), err)
				}
				if gap > 0 {
					time.Sleep(gap)
				}
			}
			if err := sp.Drain(); err != nil {
				log.Debug().Err(err).Msg("drain")
			}
			log.Info().Str("port", port).Int("chunks", len(chunks)).Int("holds", p.Len()).Msg("problem sent")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&port, "port", "/dev/ttyUSB0", "serial port")
	f.IntVar(&opts.BaudRate, "baud", 9600, "baud rate")
	f.StringVar(&start, "start", "", "start holds, comma separated")
	f.StringVar(&moves, "moves", "", "intermediate holds, comma separated")
	f.StringVar(&top, "top", "", "top holds, comma separated")
	f.IntVar(&mtu, "mtu", defaultMTU, "bytes per write")
	f.DurationVar(&gap, "gap", 10*time.Millisecond, "pause between writes")
	return cmd
}
