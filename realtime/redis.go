// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel shared by all instances
const DefaultChannel = "calmunity:realtime"

// RedisHub relays events through Redis pub/sub so every instance's
// websocket clients see writes made on any instance
type RedisHub struct {
	rdb     *redis.Client
	channel string
	ps      *redis.PubSub
	local   *MemoryHub
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewRedisHub subscribes to channel and starts relaying. The subscription
// is confirmed before it returns.
func NewRedisHub(ctx context.Context, rdb *redis.Client, channel string) (*RedisHub, error) {
	if channel == "" {
		channel = DefaultChannel
	}

	ps := rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	h := &RedisHub{
		rdb:     rdb,
		channel: channel,
		ps:      ps,
		local:   NewMemoryHub(),
		done:    make(chan struct{}),
	}
	go h.relay()
	return h, nil
}

func (h *RedisHub) relay() {
	defer close(h.done)
	for msg := range h.ps.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			slog.Warn("dropping malformed realtime message", "error", err, "channel", msg.Channel)
			continue
		}
		h.local.Publish(context.Background(), ev)
	}
}

func (h *RedisHub) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := h.rdb.Publish(ctx, h.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish realtime event: %w", err)
	}
	return nil
}

func (h *RedisHub) Subscribe() (<-chan Event, func()) {
	return h.local.Subscribe()
}

// Close stops relaying and ends local subscriptions. Safe to call twice.
func (h *RedisHub) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.ps.Close()
		<-h.done
		h.local.Close()
	})
	return h.closeErr
}
