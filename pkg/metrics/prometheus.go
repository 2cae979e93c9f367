package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fxpulse"

// Recorder holds the pipeline's Prometheus collectors on its own registry.
// A nil *Recorder is valid and records nothing.
// ⭐ SSOT: every metric name is declared here
type Recorder struct {
	registry *prometheus.Registry

	cycles           *prometheus.CounterVec
	cycleDuration    *prometheus.HistogramVec
	symbolFailures   *prometheus.CounterVec
	signalsActivated *prometheus.CounterVec
	notifications    prometheus.Counter
	providerRequests *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	hubSubscribers   prometheus.Gauge
	hubDropped       prometheus.Counter
}

// New creates a recorder with a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := func(c prometheus.Collector) { reg.MustRegister(c) }

	r := &Recorder{
		registry: reg,
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Analysis cycles run, by trigger",
			},
			[]string{"trigger"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of analysis cycles in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		symbolFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "symbol_failures_total",
				Help:      "Per-symbol pipeline failures, by stage",
			},
			[]string{"stage"},
		),
		signalsActivated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_activated_total",
				Help:      "Signals activated, by direction",
			},
			[]string{"direction"},
		),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications created for strong signals",
		}),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Quote provider requests, by outcome",
			},
			[]string{"outcome"},
		),
		lastPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Last applied price for an instrument",
			},
			[]string{"symbol"},
		),
		hubSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_subscribers",
			Help:      "Currently connected hub subscribers",
		}),
		hubDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_dropped_subscribers_total",
			Help:      "Subscribers disconnected because their buffer was full",
		}),
	}

	factory(r.cycles)
	factory(r.cycleDuration)
	factory(r.symbolFailures)
	factory(r.signalsActivated)
	factory(r.notifications)
	factory(r.providerRequests)
	factory(r.lastPrice)
	factory(r.hubSubscribers)
	factory(r.hubDropped)
	factory(collectors.NewGoCollector())
	factory(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return r
}

// RecordCycle records a finished cycle
func (r *Recorder) RecordCycle(trigger string, d time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(trigger).Inc()
	r.cycleDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

// RecordSymbolFailure records a per-symbol failure at a pipeline stage
func (r *Recorder) RecordSymbolFailure(stage string) {
	if r == nil {
		return
	}
	r.symbolFailures.WithLabelValues(stage).Inc()
}

// RecordSignal records an activated signal
func (r *Recorder) RecordSignal(direction string) {
	if r == nil {
		return
	}
	r.signalsActivated.WithLabelValues(direction).Inc()
}

// RecordNotification records a created notification
func (r *Recorder) RecordNotification() {
	if r == nil {
		return
	}
	r.notifications.Inc()
}

// RecordProviderRequest records a quote request outcome ("ok", "error", "timeout")
func (r *Recorder) RecordProviderRequest(outcome string) {
	if r == nil {
		return
	}
	r.providerRequests.WithLabelValues(outcome).Inc()
}

// RecordLastPrice records the last applied price for a symbol
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// SubscriberAdded increments the subscriber gauge
func (r *Recorder) SubscriberAdded() {
	if r == nil {
		return
	}
	r.hubSubscribers.Inc()
}

// SubscriberRemoved decrements the subscriber gauge; dropped marks a slow-consumer disconnect
func (r *Recorder) SubscriberRemoved(dropped bool) {
	if r == nil {
		return
	}
	r.hubSubscribers.Dec()
	if dropped {
		r.hubDropped.Inc()
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
