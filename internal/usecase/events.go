package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/eslsoft/vocsync/internal/entity"
)

// EventKind is the kind of change announced by an event source.
type EventKind string

const (
	EventRecordUpdated    EventKind = "recordUpdated"
	EventRecordDeleted    EventKind = "recordDeleted"
	EventPartitionDeleted EventKind = "partitionDeleted"
)

// Event announces a change to records of type T.
type Event[T entity.Record] struct {
	Kind EventKind
	// Record is set for EventRecordUpdated.
	Record T
	// Identity is set for EventRecordDeleted.
	Identity entity.Identity
	// PartitionKey is set for EventPartitionDeleted.
	PartitionKey string
	Options      []MutationOption
}

// EventHandler consumes an event; the returned Pending resolves once the change is stored.
type EventHandler[T entity.Record] func(ctx context.Context, ev Event[T]) *Pending[bool]

// EventSource delivers events to subscribed handlers.
type EventSource[T entity.Record] interface {
	Subscribe(handler EventHandler[T]) (unsubscribe func())
}

// Attach subscribes the manager to src and returns a function that detaches it.
func (m *Manager[T]) Attach(src EventSource[T]) func() {
	return src.Subscribe(m.HandleEvent)
}

// HandleEvent turns an event into the matching mutation.
func (m *Manager[T]) HandleEvent(ctx context.Context, ev Event[T]) *Pending[bool] {
	switch ev.Kind {
	case EventRecordUpdated:
		return m.Update(ctx, ev.Record, ev.Options...)
	case EventRecordDeleted:
		return m.Delete(ctx, ev.Identity, ev.Options...)
	case EventPartitionDeleted:
		return m.DeleteMany(ctx, ev.PartitionKey, ev.Options...)
	default:
		m.logger.WithField("kind", ev.Kind).Warn("unknown event ignored")
		return resolved(false, nil)
	}
}

// Broadcaster is an in-process EventSource.
type Broadcaster[T entity.Record] struct {
	mu       sync.RWMutex
	seq      int
	handlers map[int]EventHandler[T]
}

// NewBroadcaster creates a broadcaster without subscribers.
func NewBroadcaster[T entity.Record]() *Broadcaster[T] {
	return &Broadcaster[T]{handlers: make(map[int]EventHandler[T])}
}

func (b *Broadcaster[T]) Subscribe(handler EventHandler[T]) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	id := b.seq
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers ev to every subscriber in subscription order and returns their pending results.
func (b *Broadcaster[T]) Publish(ctx context.Context, ev Event[T]) []*Pending[bool] {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	handlers := make([]EventHandler[T], 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	pending := make([]*Pending[bool], 0, len(handlers))
	for _, h := range handlers {
		pending = append(pending, h(ctx, ev))
	}
	return pending
}
