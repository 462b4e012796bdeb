// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRateLimited is returned by Allow when the key has used up its window
var ErrRateLimited = errors.New("rate limited")

const (
	DefaultWindow = 10 * time.Minute
	DefaultMax    = 20
)

// Querier is satisfied by both *sql.DB and *sql.Tx so a limiter can run
// inside the caller's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Limiter bounds vote attempts per client key over a sliding window.
// Keys are already hashed by the caller.
type Limiter interface {
	// Allow returns ErrRateLimited when key has Max or more entries in the window
	Allow(ctx context.Context, q Querier, key string) error
	// Record adds one entry for key
	Record(ctx context.Context, q Querier, key, proposalID string) error
}

// Reserver is implemented by limiters whose window lives outside the vote
// transaction. Reserve checks the window and takes a slot in one atomic
// step; release returns the slot when the vote does not commit.
type Reserver interface {
	Reserve(ctx context.Context, key, proposalID string) (release func(context.Context) error, err error)
}

// Options shared by all limiter backends
type Options struct {
	Window time.Duration
	Max    int
	// AdvisoryLock serializes Allow and Record per key with a transaction
	// scoped Postgres advisory lock. SQLite already has a single writer.
	AdvisoryLock bool
	// Now is overridable for tests
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Max <= 0 {
		o.Max = DefaultMax
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
