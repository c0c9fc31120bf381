// Package pubsub implements the single logical "eludris-events" channel
// from §4.4: REST handlers and the gateway's own presence logic publish
// serialized event envelopes; gateway sockets subscribe and fan them out.
// The bus is not persistent — missed events during a disconnect are gone.
//
// Grounded on other_examples' eventbus.go (lock-free generic pub/sub with
// per-subscriber buffered channels and best-effort delivery), adapted to a
// plain mutex+map since the teacher's own concurrency idiom elsewhere
// (pkg/connector/linkpreview.go's previewCache) favors sync.RWMutex over a
// third-party lock-free map, and this bus has far lower throughput needs
// than an LLM event bus.
package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Bus fans out events of type T to every active subscriber.
type Bus[T any] struct {
	mu          sync.RWMutex
	subscribers map[string]chan T
	bufferSize  int
}

// New constructs a Bus with a given per-subscriber channel buffer size.
func New[T any](bufferSize int) *Bus[T] {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &Bus[T]{subscribers: make(map[string]chan T), bufferSize: bufferSize}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cleanup function. The channel is closed by Unsubscribe/cleanup, never
// by Publish, so a publisher never panics on a send to a closing
// subscriber (same "don't close on send" caution as the eventbus example).
func (b *Bus[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	id := uuid.NewString()
	ch := make(chan T, b.bufferSize)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	cleanup := func() { b.unsubscribe(id) }

	go func() {
		<-ctx.Done()
		cleanup()
	}()

	return ch, cleanup
}

func (b *Bus[T]) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish delivers event to every subscriber. A subscriber whose buffer
// is full has the event dropped for it rather than blocking the
// publisher — per §5, the bus guarantees per-producer order to each
// subscriber but never blocks a REST mutation on a slow gateway socket.
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers returns the current subscriber count, for diagnostics.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
