// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/blessed-dialekt/calmunity/auth"
)

const redisKeyPrefix = "calmunity:ratelimit:"

// RedisLimiter keeps one sorted set per key, scored by unix milliseconds,
// so every server instance shares the same window. Keys expire on their own.
type RedisLimiter struct {
	rdb  *redis.Client
	opts Options
}

func NewRedisLimiter(rdb *redis.Client, opts Options) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, opts: opts.withDefaults()}
}

func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Allow ignores q; the window lives in Redis
func (l *RedisLimiter) Allow(ctx context.Context, _ Querier, key string) error {
	redisKey := redisKeyPrefix + key
	cutoff := l.opts.Now().Add(-l.opts.Window).UnixMilli()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to read rate limit window: %w", err)
	}

	if card.Val() >= int64(l.opts.Max) {
		return ErrRateLimited
	}
	return nil
}

// reserveScript trims the window, then adds the member only while the set
// is under the limit. Returns 1 when a slot was taken.
var reserveScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// Reserve is the atomic form of Allow followed by Record, shared safely by
// every instance pointing at the same Redis.
func (l *RedisLimiter) Reserve(ctx context.Context, key, proposalID string) (func(context.Context) error, error) {
	redisKey := redisKeyPrefix + key
	now := l.opts.Now()
	member := proposalID + ":" + auth.NewID()

	taken, err := reserveScript.Run(ctx, l.rdb, []string{redisKey},
		now.Add(-l.opts.Window).UnixMilli(),
		l.opts.Max,
		now.UnixMilli(),
		member,
		l.opts.Window.Milliseconds(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve rate limit slot: %w", err)
	}
	if taken == 0 {
		return nil, ErrRateLimited
	}

	release := func(ctx context.Context) error {
		if err := l.rdb.ZRem(ctx, redisKey, member).Err(); err != nil {
			return fmt.Errorf("failed to release rate limit slot: %w", err)
		}
		return nil
	}
	return release, nil
}

func (l *RedisLimiter) Record(ctx context.Context, _ Querier, key, proposalID string) error {
	redisKey := redisKeyPrefix + key
	now := l.opts.Now()

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: proposalID + ":" + auth.NewID(),
	})
	pipe.Expire(ctx, redisKey, l.opts.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record rate limit entry: %w", err)
	}
	return nil
}
