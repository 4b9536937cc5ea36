// Package realtime fans row-change notifications out to per-user
// subscribers and keeps list views fresh by re-fetching on every change.
package realtime

import "sync"

// Entity names a watchable table.
type Entity string

const (
	EntityAccounts     Entity = "accounts"
	EntityTransactions Entity = "transactions"
)

// Op is the kind of change that happened. Events carry no row data; a
// subscriber is told only that something changed.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is a generic "something changed" notification scoped to one
// user's rows in one entity.
type Event struct {
	Entity Entity `json:"entity"`
	UserID string `json:"user_id"`
	Op     Op     `json:"op"`
}

type subKey struct {
	entity Entity
	userID string
}

// Subscription is one consumer's feed of events. Close releases it; the
// channel is closed afterwards.
type Subscription struct {
	C <-chan Event

	ch   chan Event
	hub  *Hub
	key  subKey
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

// Hub routes change events to subscriptions keyed by entity and owning
// user. Publishing never blocks: a subscriber that is not draining its
// channel misses events rather than stalling the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[subKey]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subKey]map[*Subscription]struct{})}
}

// Subscribe opens a feed of change events for one user's rows in one
// entity.
func (h *Hub) Subscribe(entity Entity, userID string) *Subscription {
	key := subKey{entity: entity, userID: userID}
	ch := make(chan Event, 16)
	sub := &Subscription{C: ch, ch: ch, hub: h, key: key}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*Subscription]struct{})
	}
	h.subs[key][sub] = struct{}{}
	return sub
}

// Publish delivers ev to every matching subscription.
func (h *Hub) Publish(ev Event) {
	key := subKey{entity: ev.Entity, userID: ev.UserID}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[key] {
		select {
		case sub.ch <- ev:
		default:
			// subscriber is behind; the next re-fetch catches it up
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.subs[sub.key]; set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.key)
		}
	}
}
