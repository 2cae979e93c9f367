package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxpulse/internal/api/handlers"
	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/internal/realtime"
	"github.com/wonny/fxpulse/internal/s0_data"
	"github.com/wonny/fxpulse/internal/s2_activation"
	"github.com/wonny/fxpulse/internal/s3_notify"
	"github.com/wonny/fxpulse/internal/scheduler"
	"github.com/wonny/fxpulse/pkg/config"
	"github.com/wonny/fxpulse/pkg/logger"
	"github.com/wonny/fxpulse/pkg/metrics"
)

type stubRunner struct {
	trigger string
	ctxErr  error
}

func (s *stubRunner) RunCycle(ctx context.Context, trigger string) *contracts.CycleSummary {
	s.trigger = trigger
	s.ctxErr = ctx.Err()
	return &contracts.CycleSummary{Trigger: trigger, Processed: 2, Failed: 1,
		Failures: []contracts.SymbolFailure{{Symbol: "BTCUSD", Stage: contracts.StageFetch, Error: "timeout"}}}
}

type stubJobs struct{}

func (stubJobs) GetJobStats() map[string]scheduler.JobStats {
	return map[string]scheduler.JobStats{
		"refresh_cycle": {JobName: "refresh_cycle", Schedule: "@every 30s", TotalRuns: 4, SuccessCount: 4, SuccessRate: 1},
	}
}

type fixture struct {
	server   *httptest.Server
	signals  *s2_activation.MemoryStore
	notifier *s3_notify.Engine
	hub      *realtime.Hub
	runner   *stubRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	ctx := context.Background()

	instruments := s0_data.NewMemoryInstrumentRepository()
	require.NoError(t, instruments.EnsureCatalog(ctx, []contracts.Instrument{
		{Symbol: "EURUSD", Name: "Euro / US Dollar"},
		{Symbol: "XAUUSD", Name: "Gold / US Dollar"},
	}))

	rec := metrics.New()
	f := &fixture{
		signals:  s2_activation.NewMemoryStore(),
		notifier: s3_notify.NewEngine(s3_notify.NewMemoryRepository(), log),
		hub:      realtime.NewHub(realtime.Config{BufferSize: 16, SnapshotNotifications: 10}, log, rec),
		runner:   &stubRunner{},
	}

	router := NewRouter(RouterDeps{
		Market:        handlers.NewMarketHandler(instruments, f.signals, log),
		Notifications: handlers.NewNotificationHandler(f.notifier, f.hub, log),
		Pipeline:      handlers.NewPipelineHandler(f.runner, stubJobs{}, log),
		WS:            f.hub.ServeWS,
		Metrics:       rec.Handler(),
	}, log)

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func activeSignal(symbol string, strength int) *contracts.Signal {
	now := time.Now()
	return &contracts.Signal{
		Symbol:     symbol,
		Direction:  contracts.DirectionBuy,
		Strength:   strength,
		Confidence: 70,
		Price:      1.1,
		Timeframe:  "1h",
		CreatedAt:  now,
		ExpiresAt:  now.Add(4 * time.Hour),
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, "GET", "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, "GET", "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListInstruments(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, "GET", "/api/instruments")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])
	list := body["instruments"].([]interface{})
	assert.Equal(t, "EURUSD", list[0].(map[string]interface{})["symbol"])
}

func TestSignals(t *testing.T) {
	f := newFixture(t)
	_, err := f.signals.Activate(context.Background(), activeSignal("XAUUSD", 95))
	require.NoError(t, err)

	resp, body := f.do(t, "GET", "/api/signals")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, body = f.do(t, "GET", "/api/signals/xauusd")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "XAUUSD", body["symbol"])
	assert.Equal(t, "BUY", body["signal_type"])

	resp, body = f.do(t, "GET", "/api/signals/EURUSD")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "EURUSD")
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.notifier.Notify(ctx, activeSignal("XAUUSD", 95))
	require.NoError(t, err)
	require.NotNil(t, n)

	resp, body := f.do(t, "GET", "/api/notifications?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(1), body["unread"])

	resp, _ = f.do(t, "GET", "/api/notifications?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.notifier.Notify(ctx, activeSignal("XAUUSD", 95))
	require.NoError(t, err)

	sub, _, err := f.hub.Subscribe(realtime.TopicNotifications)
	require.NoError(t, err)
	defer sub.Cancel()

	resp, body := f.do(t, "POST", "/api/notifications/"+n.ID+"/read")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_read"])

	select {
	case ev := <-sub.Events():
		assert.Equal(t, realtime.EventNotificationRead, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no notification.read event")
	}

	unread, err := f.notifier.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestMarkRead_NotFound(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, "POST", "/api/notifications/00000000-0000-0000-0000-000000000000/read")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/api/notifications/not-a-uuid/read")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "POST", "/api/refresh")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, contracts.TriggerManual, f.runner.trigger)
	assert.NoError(t, f.runner.ctxErr)
	assert.Equal(t, float64(2), body["processed"])
	assert.Equal(t, float64(1), body["failed"])

}

func TestWrongMethodIsMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "GET", "/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", body["error"])
	assert.Empty(t, f.runner.trigger, "cycle must not run")

	resp, _ = f.do(t, "GET", "/api/notifications/abc/read")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/health")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = f.do(t, "GET", "/api/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSchedulerJobs(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, "GET", "/api/scheduler/jobs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	jobs := body["jobs"].(map[string]interface{})
	assert.Contains(t, jobs, "refresh_cycle")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	cfg := &config.Config{Port: "0", Env: "development"}
	srv := New(cfg, logger.Nop(), http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
