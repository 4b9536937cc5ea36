package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// FetchFunc loads the full list for the watched entity.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Watcher keeps an in-memory list of one user's rows reasonably fresh.
// On Start it performs one full fetch, then re-fetches and replaces the
// whole list on every change event. There is no incremental patching and
// no coalescing of bursts: each event triggers an independent refresh,
// and when refreshes overlap the last one to finish wins.
type Watcher[T any] struct {
	hub    *Hub
	entity Entity
	fetch  FetchFunc[T]

	mu    sync.RWMutex
	items []T

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewWatcher[T any](hub *Hub, entity Entity, fetch FetchFunc[T]) *Watcher[T] {
	return &Watcher[T]{hub: hub, entity: entity, fetch: fetch}
}

// Start loads the list and opens a subscription for userID's rows. A
// previous run, if any, is stopped first. The initial fetch failing does
// not prevent the subscription from being established; the next change
// event retries the load.
func (w *Watcher[T]) Start(ctx context.Context, userID string) {
	w.Stop()

	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	if err := w.Refresh(ctx); err != nil {
		slog.Error("initial fetch failed", "entity", w.entity, "error", err)
	}

	sub := w.hub.Subscribe(w.entity, userID)
	go w.run(ctx, sub, w.done)
}

// Stop releases the subscription and clears the snapshot. In-flight
// fetches are not interrupted server-side; only their state updates are
// suppressed.
func (w *Watcher[T]) Stop() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	w.done = nil

	w.mu.Lock()
	w.items = nil
	w.mu.Unlock()
}

func (w *Watcher[T]) run(ctx context.Context, sub *Subscription, done chan struct{}) {
	defer close(done)
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.C:
			if !ok {
				return
			}
			go func() {
				if err := w.Refresh(ctx); err != nil {
					slog.Error("refresh failed", "entity", w.entity, "error", err)
				}
			}()
		}
	}
}

// Refresh performs one full fetch-and-replace. A cancelled context
// suppresses the state update only; the underlying call still completes.
func (w *Watcher[T]) Refresh(ctx context.Context) error {
	items, err := w.fetch(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current list.
func (w *Watcher[T]) Snapshot() []T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}
