// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime pushes change notifications to browsers over a websocket.

Handlers publish an Event after their write commits. Events carry the table,
change type and proposal id only; clients refetch whatever they display.

	hub := realtime.NewMemoryHub()
	mux.HandleFunc("GET /realtime", realtime.Handler(hub, m))

With several server instances use RedisHub, which relays events through a
Redis pub/sub channel:

	hub, err := realtime.NewRedisHub(ctx, rdb, realtime.DefaultChannel)

Delivery is best effort. A subscriber that falls behind loses events rather
than slowing publishers down, and the vote path never depends on the hub.
*/
package realtime
