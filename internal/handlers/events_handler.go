package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"speechcoach/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamMessage is one websocket message: the draft snapshot on connect, then events
type streamMessage struct {
	Type     string            `json:"type"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Event    *session.Event    `json:"event,omitempty"`
}

// handleEvents streams a draft's events over a websocket until the client
// disconnects or the draft is deleted
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("Failed to upgrade event stream")
		return
	}
	defer conn.Close()

	events, unsubscribe := entry.Controller.Subscribe()
	defer unsubscribe()

	snapshot := entry.Controller.Snapshot()
	if err := writeStream(conn, streamMessage{Type: "snapshot", Snapshot: &snapshot}); err != nil {
		return
	}

	// Reads only serve to notice the client going away
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.WithError(err).Debug("Event stream closed")
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "draft closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := writeStream(conn, streamMessage{Type: "event", Event: &ev}); err != nil {
				logger.WithError(err).Debug("Event stream write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeStream(conn *websocket.Conn, msg streamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
