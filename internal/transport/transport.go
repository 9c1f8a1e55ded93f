// Package transport delivers raw inbound byte chunks to the dispatch loop.
// Chunk boundaries mean nothing: a frame may span many chunks and a chunk may
// hold parts of several frames.
package transport

import "context"

// Source produces inbound chunks. Start registers the source and returns once
// it is ready; chunks are then sent on out from the source's own goroutine or
// callback until ctx is done. Each chunk is a private copy.
//
// out belongs to the source. A source whose input can run out (EOF, a
// failed read) closes out when it stops, so the consumer sees the end of
// input as a closed channel. Sources that only stop with ctx may leave it
// open. Never share one out between sources.
type Source interface {
	Start(ctx context.Context, out chan<- []byte) error
	Close() error
}

// Resumer is implemented by sources that stop announcing themselves after a
// write, such as a BLE peripheral that must re-enable advertising.
type Resumer interface {
	Resume() error
}

func deliver(ctx context.Context, out chan<- []byte, b []byte) bool {
	if ctx.Err() != nil {
		return false
	}
	chunk := make([]byte, len(b))
	copy(chunk, b)
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
