package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxpulse/internal/contracts"
)

type rawFrame struct {
	Type  string          `json:"type"`
	Seq   uint64          `json:"seq"`
	Topic Topic           `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) rawFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f rawFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServeWSSnapshotThenEvents(t *testing.T) {
	hub := newTestHub(16)
	hub.Seed(nil, []contracts.Signal{sig("EURUSD", 60)}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dial(t, server, "?topics=signals")

	first := readFrame(t, conn)
	assert.Equal(t, "snapshot", first.Type)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(first.Data, &snap))
	require.Len(t, snap.Signals, 1)
	assert.Equal(t, "EURUSD", snap.Signals[0].Symbol)

	// wait until the handler has registered before publishing
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.PublishSignal(sig("XAUUSD", 95))

	ev := readFrame(t, conn)
	assert.Equal(t, string(EventSignalActivated), ev.Type)
	assert.Equal(t, TopicSignals, ev.Topic)
	assert.Greater(t, ev.Seq, first.Seq)

	var got contracts.Signal
	require.NoError(t, json.Unmarshal(ev.Data, &got))
	assert.Equal(t, "XAUUSD", got.Symbol)
	assert.Equal(t, 95, got.Strength)
}

func TestServeWSRejectsUnknownTopic(t *testing.T) {
	hub := newTestHub(16)
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?topics=orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeWSUnsubscribesOnClose(t *testing.T) {
	hub := newTestHub(16)
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dial(t, server, "")
	readFrame(t, conn)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseFrameCodes(t *testing.T) {
	code, reason := closeFor(false)
	assert.Equal(t, websocket.CloseNormalClosure, code)
	assert.Equal(t, "unsubscribed", reason)

	code, reason = closeFor(true)
	assert.Equal(t, websocket.CloseTryAgainLater, code)
	assert.Equal(t, "subscriber too slow", reason)
}
