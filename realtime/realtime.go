// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Tables that emit change events
const (
	TableProposals       = "proposals"
	TableVotes           = "proposal_votes"
	TableKalments        = "proposal_kalments"
	TableRekommendations = "kalmitee_rekommendations"
)

// Change types
const (
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
)

// Event announces a committed write. Clients refetch what they need.
type Event struct {
	Table      string    `json:"table"`
	Type       string    `json:"type"`
	ProposalID string    `json:"proposal_id"`
	At         time.Time `json:"at"`
}

// Hub fans events out to subscribers
type Hub interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events and a func that ends the
	// subscription and closes the channel
	Subscribe() (<-chan Event, func())
	Close() error
}

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// events to it are dropped
const subscriberBuffer = 32

// MemoryHub delivers events within one process
type MemoryHub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[int]chan Event)}
}

// Publish never blocks; a subscriber with a full buffer misses the event
func (h *MemoryHub) Publish(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("realtime subscriber lagging, dropping event", "subscriber", id, "table", ev.Table)
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the current subscriber count
func (h *MemoryHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription
func (h *MemoryHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	return nil
}

// PublishAfterCommit publishes ev and logs instead of failing; a write that
// already committed must not be reported as failed
func PublishAfterCommit(ctx context.Context, hub Hub, ev Event) {
	if hub == nil {
		return
	}
	if err := hub.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish realtime event", "error", err, "table", ev.Table, "proposal_id", ev.ProposalID)
	}
}
