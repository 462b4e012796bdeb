// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/blessed-dialekt/calmunity/auth"
	"github.com/blessed-dialekt/calmunity/metrics"
)

// SQLLimiter keeps window entries in the vote_rate_limit table.
// Entries recorded inside a vote transaction roll back with it.
type SQLLimiter struct {
	db   *sql.DB
	opts Options
}

func NewSQLLimiter(db *sql.DB, opts Options) *SQLLimiter {
	return &SQLLimiter{db: db, opts: opts.withDefaults()}
}

func (l *SQLLimiter) Allow(ctx context.Context, q Querier, key string) error {
	if q == nil {
		q = l.db
	}
	if l.opts.AdvisoryLock {
		// Held until the caller's transaction ends, so a concurrent vote from
		// the same address waits for this one's Record to commit
		if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("failed to lock rate limit key: %w", err)
		}
	}
	since := l.opts.Now().UTC().Add(-l.opts.Window)

	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vote_rate_limit
		WHERE ip_hash = $1 AND created_at >= $2
	`, key, since).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count rate limit entries: %w", err)
	}

	if count >= l.opts.Max {
		return ErrRateLimited
	}
	return nil
}

func (l *SQLLimiter) Record(ctx context.Context, q Querier, key, proposalID string) error {
	if q == nil {
		q = l.db
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO vote_rate_limit (id, ip_hash, proposal_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, auth.NewID(), key, proposalID, l.opts.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record rate limit entry: %w", err)
	}
	return nil
}

// Prune deletes entries older than before and returns how many went
func (l *SQLLimiter) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		DELETE FROM vote_rate_limit WHERE created_at < $1
	`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune rate limit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned entries: %w", err)
	}
	return n, nil
}

// RunPruner removes entries that have left the window every interval
// until ctx is cancelled.
func (l *SQLLimiter) RunPruner(ctx context.Context, interval time.Duration, m *metrics.Metrics) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.Prune(ctx, l.opts.Now().Add(-l.opts.Window))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("rate limit prune failed", "error", err)
				continue
			}
			m.ObservePruned(n)
			if n > 0 {
				slog.Info("pruned rate limit entries", "count", n)
			}
		}
	}
}
