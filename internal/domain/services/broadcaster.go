package services

import (
	"sync"

	"github.com/servelite/servelite/internal/domain/ports"
)

// Broadcaster fans reload signals out to any number of subscribers.
// Publish never blocks: a subscriber whose buffer is full loses its oldest
// pending signal. Signals are idempotent, so a lagging subscriber still sees
// at least one signal per burst.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan struct{}
	nextID      uint64
	bufferSize  int
	closed      bool
}

// NewBroadcaster creates a broadcaster giving each subscriber bufferSize slots
func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Broadcaster{
		subscribers: make(map[uint64]chan struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new receiver. It sees only signals published after
// this call. Subscribing to a closed broadcaster yields a closed channel.
func (b *Broadcaster) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan struct{}, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Broadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish delivers a signal to every subscriber and returns how many there were
func (b *Broadcaster) Publish() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- struct{}{}:
			continue
		default:
		}

		// Full: drop the oldest pending signal and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	return len(b.subscribers)
}

// SubscriberCount returns the number of live subscribers
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel. Later Publish calls are no-ops.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Ensure Broadcaster implements ports.ReloadSource
var _ ports.ReloadSource = (*Broadcaster)(nil)
