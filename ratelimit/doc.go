// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratelimit bounds vote attempts per client over a sliding window.

The default window is 10 minutes with at most 20 recorded attempts. Keys are
salted hashes of the client address, never raw addresses.

# Backends

SQLLimiter stores entries in the vote_rate_limit table. Both Allow and Record
accept a Querier so the ledger can run them inside its vote transaction. On
Postgres, AdvisoryLock makes concurrent votes from one address wait on each
other so a burst cannot overshoot Max:

	limiter := ratelimit.NewSQLLimiter(db, ratelimit.Options{AdvisoryLock: true})
	go limiter.RunPruner(ctx, time.Hour, m)

RedisLimiter keeps a sorted set per key and is shared by every instance
pointed at the same Redis:

	limiter := ratelimit.NewRedisLimiter(rdb, ratelimit.Options{Max: 20})

It implements Reserver: a Lua script checks the window and adds the entry in
one step, and the ledger releases the entry when the vote does not commit.
*/
package ratelimit
