package transport

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Lines reads hex encoded chunks, one per line, for bench testing without a
// radio. Blank lines and lines starting with '#' are skipped. Spaces inside
// a line are ignored, so "c0 7b 22" works.
type Lines struct {
	r   io.Reader
	log zerolog.Logger
}

func NewLines(r io.Reader, log zerolog.Logger) *Lines {
	return &Lines{r: r, log: log}
}

// Start reads in the background. out is closed when the input ends so the
// dispatch loop can finish.
func (l *Lines) Start(ctx context.Context, out chan<- []byte) error {
	go func() {
		defer close(out)
		sc := bufio.NewScanner(l.r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			b, err := hex.DecodeString(strings.ReplaceAll(line, " ", ""))
			if err != nil {
				l.log.Warn().Err(err).Str("line", line).Msg("skipping bad hex line")
				continue
			}
			if !deliver(ctx, out, b) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			l.log.Error().Err(err).Msg("read lines")
		}
	}()
	return nil
}

func (l *Lines) Close() error {
	if c, ok := l.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
