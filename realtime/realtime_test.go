// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blessed-dialekt/calmunity/metrics"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryHubFanOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewMemoryHub()
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelB()
	assert.Equal(t, 2, hub.Subscribers())

	ev := Event{Table: TableVotes, Type: TypeInsert, ProposalID: "p1"}
	require.NoError(t, hub.Publish(context.Background(), ev))

	gotA := receive(t, a)
	gotB := receive(t, b)
	assert.Equal(t, "p1", gotA.ProposalID)
	assert.False(t, gotA.At.IsZero(), "publish stamps the event")
	assert.Equal(t, gotA, gotB)

	cancelA()
	cancelA() // idempotent
	_, ok := <-a
	assert.False(t, ok)
	assert.Equal(t, 1, hub.Subscribers())
}

func TestMemoryHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewMemoryHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, hub.Publish(context.Background(), Event{Table: TableProposals}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestMemoryHubClose(t *testing.T) {
	hub := NewMemoryHub()
	ch, cancel := hub.Subscribe()
	require.NoError(t, hub.Close())

	_, ok := <-ch
	assert.False(t, ok)
	cancel()

	// Publishing and subscribing after close are harmless
	assert.NoError(t, hub.Publish(context.Background(), Event{}))
	late, _ := hub.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestPublishAfterCommitNilHub(t *testing.T) {
	PublishAfterCommit(context.Background(), nil, Event{Table: TableVotes})
}

func TestRedisHubAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return rdb
	}

	first, err := NewRedisHub(ctx, newClient(), "")
	require.NoError(t, err)
	defer first.Close()
	second, err := NewRedisHub(ctx, newClient(), "")
	require.NoError(t, err)
	defer second.Close()

	events, cancel := second.Subscribe()
	defer cancel()

	require.NoError(t, first.Publish(ctx, Event{Table: TableKalments, Type: TypeInsert, ProposalID: "p9"}))

	ev := receive(t, events)
	assert.Equal(t, TableKalments, ev.Table)
	assert.Equal(t, "p9", ev.ProposalID)
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *MemoryHub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHandlerStreamsEvents(t *testing.T) {
	hub := NewMemoryHub()
	srv := httptest.NewServer(Handler(hub, metrics.New()))
	defer srv.Close()

	all := dial(t, srv, "")
	onlyP2 := dial(t, srv, "?proposal_id=p2")
	waitForSubscribers(t, hub, 2)

	ctx := context.Background()
	hub.Publish(ctx, Event{Table: TableVotes, Type: TypeUpdate, ProposalID: "p1"})
	hub.Publish(ctx, Event{Table: TableVotes, Type: TypeUpdate, ProposalID: "p2"})

	var ev Event
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, "p1", ev.ProposalID)
	require.NoError(t, all.ReadJSON(&ev))
	assert.Equal(t, "p2", ev.ProposalID)

	require.NoError(t, onlyP2.ReadJSON(&ev))
	assert.Equal(t, "p2", ev.ProposalID)
}

func TestHandlerListenMessage(t *testing.T) {
	hub := NewMemoryHub()
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	conn := dial(t, srv, "?proposal_id=p1")
	waitForSubscribers(t, hub, 1)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "h"}))
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "listen", ProposalIDs: []string{"p3"}}))

	// p3 is outside the initial filter, so the first event seen proves the
	// listen message was applied
	ctx := context.Background()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	go func() {
		for i := 0; i < 50; i++ {
			hub.Publish(ctx, Event{Table: TableProposals, ProposalID: "p3"})
			time.Sleep(10 * time.Millisecond)
		}
	}()

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "p3", ev.ProposalID)
	assert.Equal(t, TableProposals, ev.Table)
}

func TestHandlerUnsubscribesOnDisconnect(t *testing.T) {
	hub := NewMemoryHub()
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForSubscribers(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForSubscribers(t, hub, 0)
}

func TestFilter(t *testing.T) {
	assert.True(t, newFilter(nil).match(Event{ProposalID: "x"}))
	assert.True(t, newFilter([]string{""}).match(Event{ProposalID: "x"}))
	f := newFilter([]string{"a", "b"})
	assert.True(t, f.match(Event{ProposalID: "b"}))
	assert.False(t, f.match(Event{ProposalID: "c"}))
}
