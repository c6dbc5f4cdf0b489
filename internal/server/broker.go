package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shuttlesplit/api/internal/store"
)

// ChangeEvent tells clients which collection to refetch.
type ChangeEvent struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

const (
	eventPlayers = "players"
	eventMatches = "matches"
	eventCosts   = "costs"
	eventReset   = "reset"
)

// Broker fans change events out to SSE subscribers. Slow subscribers miss
// events rather than block writers.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan ChangeEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan ChangeEvent]struct{})}
}

func (b *Broker) Subscribe() chan ChangeEvent {
	ch := make(chan ChangeEvent, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan ChangeEvent) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *Broker) Publish(ev ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// notifier runs after every successful write: the cached fee report is
// dropped and subscribers are told what changed.
type notifier struct {
	logger *slog.Logger
	cache  store.ReportCache
	broker *Broker
}

func (n notifier) changed(ctx context.Context, typ, id string) {
	if err := n.cache.Invalidate(ctx); err != nil {
		n.logger.Warn("invalidating fee report cache", "error", err)
	}
	n.broker.Publish(ChangeEvent{Type: typ, ID: id})
}
