// Package bus broadcasts "progress updated" notifications between consumers.
package bus

import (
	"sort"
	"sync"
)

// OriginExternal tags notifications caused by another process.
const OriginExternal = "external"

// Notification announces that persisted progress changed.
type Notification struct {
	// Origin identifies the publisher so it can recognise its own echo.
	Origin string
	// Revision increases by one per publish on a bus.
	Revision uint64
}

// Handler receives notifications.
type Handler func(Notification)

// Bus is a process-wide, payload-free pub/sub channel. Handlers run
// synchronously on the publishing goroutine in subscription order.
type Bus struct {
	mu       sync.Mutex
	handlers map[uint64]Handler
	nextID   uint64
	revision uint64
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{handlers: map[uint64]Handler{}}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
		})
	}
}

// Publish delivers a notification to every current subscriber.
func (b *Bus) Publish(origin string) Notification {
	b.mu.Lock()
	b.revision++
	n := Notification{Origin: origin, Revision: b.revision}
	ids := make([]uint64, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(n)
	}
	return n
}

// Revision returns the revision of the latest publish.
func (b *Bus) Revision() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// Subscribers returns the number of registered handlers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
