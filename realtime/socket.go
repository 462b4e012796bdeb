// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blessed-dialekt/calmunity/metrics"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage is what a websocket client may send
type clientMessage struct {
	Type        string   `json:"type"`
	ProposalIDs []string `json:"proposal_ids"`
}

// filter limits delivery to a set of proposals; empty means everything
type filter map[string]bool

func newFilter(ids []string) filter {
	f := make(filter, len(ids))
	for _, id := range ids {
		if id != "" {
			f[id] = true
		}
	}
	return f
}

func (f filter) match(ev Event) bool {
	return len(f) == 0 || f[ev.ProposalID]
}

// Handler upgrades GET /realtime to a websocket and streams hub events.
// Clients may narrow the stream with ?proposal_id= (repeatable) or by
// sending {"type":"listen","proposal_ids":[...]}; {"type":"h"} is a heartbeat.
func Handler(hub Hub, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("failed to upgrade websocket", "error", err)
			return
		}
		defer ws.Close()

		m.RealtimeClientConnected()
		defer m.RealtimeClientDisconnected()

		events, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		current := newFilter(r.URL.Query()["proposal_id"])
		listen := make(chan filter)
		quit := make(chan struct{})
		done := make(chan struct{})
		defer close(done)

		go func() {
			defer close(quit)
			for {
				var msg clientMessage
				if err := ws.ReadJSON(&msg); err != nil {
					var closeErr *websocket.CloseError
					if errors.As(err, &closeErr) {
						if closeErr.Code != websocket.CloseNormalClosure && closeErr.Code != websocket.CloseGoingAway {
							slog.Debug("websocket closed", "error", closeErr)
						}
					} else {
						slog.Debug("websocket read ended", "error", err)
					}
					return
				}

				switch msg.Type {
				case "listen":
					select {
					case listen <- newFilter(msg.ProposalIDs):
					case <-done:
						return
					}
				case "h":
				default:
					slog.Info("unknown websocket message type", "type", msg.Type)
				}
			}
		}()

		for {
			select {
			case <-quit:
				return
			case f := <-listen:
				current = f
			case ev, ok := <-events:
				if !ok {
					ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
						time.Now().Add(time.Second))
					return
				}
				if !current.match(ev) {
					continue
				}
				ws.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := ws.WriteJSON(ev); err != nil {
					slog.Error("failed to write websocket message", "error", err)
					return
				}
			}
		}
	}
}
