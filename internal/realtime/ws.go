package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame is one websocket message. The first frame is always a snapshot.
type Frame struct {
	Type  string      `json:"type"` // "snapshot" or an EventType
	Seq   uint64      `json:"seq"`
	Topic Topic       `json:"topic,omitempty"`
	Data  interface{} `json:"data"`
}

// ServeWS upgrades the request and streams the snapshot then events.
// Query: topics=instruments,signals,notifications (default all).
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	var topics []Topic
	if raw := r.URL.Query().Get("topics"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			t, err := ParseTopic(strings.TrimSpace(part))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			topics = append(topics, t)
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub, snap, err := h.Subscribe(topics...)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		return
	}
	defer sub.Cancel()

	log := h.logger.WithFields(map[string]interface{}{
		"subscriber": sub.id,
		"remote":     r.RemoteAddr,
	})
	log.Debug("WebSocket subscriber connected")

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Frame{Type: "snapshot", Seq: snap.Seq, Data: snap}); err != nil {
		log.WithError(err).Debug("Snapshot write failed")
		return
	}

	// reader: only pongs and close frames are expected
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessage)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				code, reason := closeFor(sub.Dropped())
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
				log.WithField("reason", reason).Debug("WebSocket subscriber closed")
				return
			}
			if err := conn.WriteJSON(Frame{Type: string(ev.Type), Seq: ev.Seq, Topic: ev.Topic, Data: ev.Data}); err != nil {
				log.WithError(err).Debug("Event write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			log.Debug("WebSocket subscriber disconnected")
			return
		}
	}
}

// closeFor picks the close frame for an ended stream.
// Only a dropped subscriber is told to come back later.
func closeFor(dropped bool) (int, string) {
	if dropped {
		return websocket.CloseTryAgainLater, "subscriber too slow"
	}
	return websocket.CloseNormalClosure, "unsubscribed"
}
