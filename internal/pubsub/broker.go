// Package pubsub fans decoded problems out to any number of subscribers.
package pubsub

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/coreman2200/funtimes-moonboard/internal/problem"
)

// Broker delivers each published problem to every current subscriber.
// Publish never blocks: a subscriber that is not keeping up misses problems.
type Broker struct {
	mu      sync.Mutex
	subs    map[string]chan problem.Problem
	last    *problem.Problem
	dropped uint64
	closed  bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]chan problem.Problem)}
}

// Subscribe returns an ID for Unsubscribe and a channel of problems. The
// channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe() (string, <-chan problem.Problem) {
	id, ch, _ := b.SubscribeCurrent()
	return id, ch
}

// SubscribeCurrent subscribes and returns the problem published last, if
// any, in one step: every later problem arrives on the channel and nothing
// arrives twice.
func (b *Broker) SubscribeCurrent() (string, <-chan problem.Problem, *problem.Problem) {
	id := uuid.New().String()
	ch := make(chan problem.Problem, 4)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch, nil
	}
	b.subs[id] = ch
	var cur *problem.Problem
	if b.last != nil {
		p := clone(*b.last)
		cur = &p
	}
	return id, ch, cur
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish hands p to every subscriber.
func (b *Broker) Publish(p problem.Problem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last = &p
	for _, ch := range b.subs {
		select {
		case ch <- p:
		default:
			b.dropped++
		}
	}
}

// Last returns the most recently published problem.
func (b *Broker) Last() (problem.Problem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return problem.Problem{}, false
	}
	return clone(*b.last), true
}

func clone(p problem.Problem) problem.Problem {
	return problem.Problem{Start: slices.Clone(p.Start), Moves: slices.Clone(p.Moves), Top: slices.Clone(p.Top)}
}

// Subscribers is the current subscriber count.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *Broker) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
