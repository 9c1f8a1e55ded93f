package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-moonboard/internal/app"
	"github.com/coreman2200/funtimes-moonboard/internal/layout"
)

func newLayoutCmd(g *globals) *cobra.Command {
	var start, direction string
	var pixels []int
	cmd := &cobra.Command{
		Use:   "layout [hold...]",
		Short: "Print the LED index of every hold for the configured wiring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd, newLogger(g.debug))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("start") {
				cfg.Wiring.StartHold = start
			}
			if cmd.Flags().Changed("direction") {
				cfg.Wiring.Direction = direction
			}
			m, err := app.BuildLayout(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 && len(pixels) == 0 {
				printMap(out, m)
				return nil
			}
			for _, h := range args {
				i, err := m.HoldToPixel(h)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s -> %d\n", strings.ToUpper(h), i)
			}
			for _, i := range pixels {
				c, err := m.PixelToCoordinate(i)
				if err != nil {
					return err
				}
				h, _ := m.Grid().HoldAt(c.X, c.Y)
				fmt.Fprintf(out, "%d -> %s\n", i, h)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "K1", "hold wired to LED 0")
	cmd.Flags().StringVar(&direction, "direction", "up", "direction the string leaves the start hold")
	cmd.Flags().IntSliceVar(&pixels, "pixel", nil, "print the hold at these LED indexes")
	return cmd
}

// printMap draws the wall as seen from the front, top row first.
func printMap(w io.Writer, m *layout.Map) {
	dim := m.Grid()
	fmt.Fprintf(w, "wiring %s %s, %d LEDs\n", holdName(m, m.Start()), m.Direction(), m.Len())
	fmt.Fprint(w, "    ")
	for x := 0; x < dim.Columns; x++ {
		fmt.Fprintf(w, "%4c", 'A'+x)
	}
	fmt.Fprintln(w)
	for y := 0; y < dim.Rows; y++ {
		fmt.Fprintf(w, "%3d ", dim.Rows-y)
		for x := 0; x < dim.Columns; x++ {
			i, _ := m.CoordinateToPixel(x, y)
			fmt.Fprintf(w, "%4d", i)
		}
		fmt.Fprintln(w)
	}
}

func holdName(m *layout.Map, c layout.Coordinate) string {
	h, err := m.Grid().HoldAt(c.X, c.Y)
	if err != nil {
		return c.String()
	}
	return h
}
