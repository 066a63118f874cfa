package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ScopeKind says how much of the store a change touched.
type ScopeKind int

const (
	// KindAll means everything may have changed; re-run all queries.
	KindAll ScopeKind = iota
	// KindBookmark means a single bookmark changed.
	KindBookmark
	// KindTag means a single tag changed.
	KindTag
)

// Scope describes the extent of a store change.
type Scope struct {
	Kind     ScopeKind
	Bookmark string // identifier, when Kind == KindBookmark
	Tag      string // tag name, when Kind == KindTag
}

// AllScope covers the entire store.
func AllScope() Scope { return Scope{Kind: KindAll} }

// BookmarkScope covers one bookmark.
func BookmarkScope(id string) Scope { return Scope{Kind: KindBookmark, Bookmark: id} }

// TagScope covers one tag.
func TagScope(name string) Scope { return Scope{Kind: KindTag, Tag: name} }

// ObserverFunc receives change notifications. It runs on the bus's delivery
// goroutine; it may call back into the store, but must treat a notification
// as "something changed" and re-query rather than trust payload freshness.
type ObserverFunc func(Scope)

// Handle identifies a registered observer.
type Handle = uuid.UUID

type observer struct {
	id Handle
	fn ObserverFunc
}

// Bus fans out change notifications on a single delivery goroutine,
// decoupled from the storage path. The pending queue is unbounded so Notify
// never blocks; a slow observer delays later deliveries, never storage.
// Delivery preserves the order notifications were enqueued in.
type Bus struct {
	mu        sync.Mutex
	cond      *sync.Cond
	observers []observer
	pending   []Scope
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewBus starts the delivery goroutine.
func NewBus() *Bus {
	b := &Bus{done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)

	go b.deliver()

	return b
}

func (b *Bus) deliver() {
	defer close(b.done)

	b.mu.Lock()
	for {
		for len(b.pending) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.pending) == 0 && b.closed {
			b.mu.Unlock()
			return
		}

		scope := b.pending[0]
		b.pending = b.pending[1:]

		obs := make([]observer, len(b.observers))
		copy(obs, b.observers)

		// observers run outside the lock so they may re-enter the bus
		b.mu.Unlock()
		for _, o := range obs {
			o.fn(scope)
		}
		b.mu.Lock()
	}
}

// Subscribe registers an observer; it is called for every subsequent
// notification until unsubscribed.
func (b *Bus) Subscribe(fn ObserverFunc) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	b.observers = append(b.observers, observer{id: id, fn: fn})

	return id
}

// Unsubscribe removes an observer by handle. Unknown handles are ignored.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, o := range b.observers {
		if o.id == h {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			return
		}
	}
}

// Notify enqueues a notification for delivery. Never blocks; notifying a
// closed bus is a no-op.
func (b *Bus) Notify(s Scope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.pending = append(b.pending, s)
	b.cond.Signal()
}

// Wait blocks until the next notification of any scope, deregistering its
// one-shot observer on return. Callers must tolerate wakeups for unrelated
// changes and re-check state.
func (b *Bus) Wait(ctx context.Context) error {
	ch := make(chan struct{}, 1)
	h := b.Subscribe(func(Scope) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	defer b.Unsubscribe(h)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

// Close stops delivery after draining pending notifications.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.cond.Signal()
		b.mu.Unlock()

		<-b.done
	})
}
