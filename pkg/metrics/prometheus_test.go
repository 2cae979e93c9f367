package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.RecordCycle("manual", 150*time.Millisecond)
	r.RecordCycle("manual", 50*time.Millisecond)
	r.RecordCycle("scheduled", time.Second)
	r.RecordSymbolFailure("fetch")
	r.RecordSignal("BUY")
	r.RecordNotification()
	r.RecordProviderRequest("timeout")
	r.RecordLastPrice("EURUSD", 1.0842)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cycles.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("scheduled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.symbolFailures.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signalsActivated.WithLabelValues("BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifications))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerRequests.WithLabelValues("timeout")))
	assert.Equal(t, 1.0842, testutil.ToFloat64(r.lastPrice.WithLabelValues("EURUSD")))
}

func TestSubscriberGauge(t *testing.T) {
	r := New()

	r.SubscriberAdded()
	r.SubscriberAdded()
	r.SubscriberRemoved(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.hubSubscribers))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.hubDropped))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordCycle("manual", time.Second)
		r.RecordSymbolFailure("fetch")
		r.RecordSignal("SELL")
		r.RecordNotification()
		r.RecordProviderRequest("ok")
		r.RecordLastPrice("XAUUSD", 2000)
		r.SubscriberAdded()
		r.SubscriberRemoved(false)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.RecordSignal("BUY")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fxpulse_signals_activated_total{direction="BUY"} 1`)
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordNotification()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.notifications))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.notifications))
}
