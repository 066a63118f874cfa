package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInOrder(t *testing.T) {
	t.Parallel()

	b := NewBus()
	defer b.Close()

	got := make(chan Scope, 8)
	b.Subscribe(func(s Scope) { got <- s })

	b.Notify(BookmarkScope("a1"))
	b.Notify(TagScope("news"))
	b.Notify(AllScope())

	assert.Equal(t, BookmarkScope("a1"), <-got)
	assert.Equal(t, TagScope("news"), <-got)
	assert.Equal(t, AllScope(), <-got)
}

func TestBusFanOut(t *testing.T) {
	t.Parallel()

	b := NewBus()

	var mu sync.Mutex
	counts := map[string]int{}
	observe := func(name string) ObserverFunc {
		return func(Scope) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		}
	}

	b.Subscribe(observe("first"))
	b.Subscribe(observe("second"))

	b.Notify(AllScope())
	b.Close() // drains pending deliveries

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"first": 1, "second": 1}, counts)
}

func TestBusUnsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBus()

	fired := make(chan struct{}, 4)
	h := b.Subscribe(func(Scope) { fired <- struct{}{} })
	b.Unsubscribe(h)

	b.Notify(AllScope())
	b.Close()

	select {
	case <-fired:
		t.Fatal("removed observer must not fire")
	default:
	}
}

func TestBusWait(t *testing.T) {
	t.Parallel()

	b := NewBus()
	defer b.Close()

	done := make(chan error, 1)
	go func() { done <- b.Wait(context.Background()) }()

	// give the waiter time to register
	time.Sleep(20 * time.Millisecond)
	b.Notify(BookmarkScope("a1"))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after a notification")
	}
}

func TestBusNotifyNeverBlocks(t *testing.T) {
	t.Parallel()

	b := NewBus()

	var delivered atomic.Int32
	gate := make(chan struct{})
	b.Subscribe(func(Scope) {
		delivered.Add(1)
		<-gate
	})

	// far more notifications than any fixed queue would hold; every
	// enqueue must return while the observer is stuck on the first one
	const n = 200
	enqueued := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			b.Notify(BookmarkScope(string(rune('a' + i%26))))
		}
		close(enqueued)
	}()

	select {
	case <-enqueued:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked behind a stuck observer")
	}

	close(gate)
	b.Close() // drains the backlog

	assert.Equal(t, int32(n), delivered.Load())
}

func TestBusNotifyAfterCloseIsNoOp(t *testing.T) {
	t.Parallel()

	b := NewBus()

	fired := make(chan struct{}, 1)
	b.Subscribe(func(Scope) { fired <- struct{}{} })

	b.Close()
	b.Notify(AllScope())

	select {
	case <-fired:
		t.Fatal("closed bus must not deliver")
	default:
	}
}

func TestBusWaitContextCancelled(t *testing.T) {
	t.Parallel()

	b := NewBus()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, b.Wait(ctx), context.DeadlineExceeded)
}
