// Package metrics exposes the engine's accounting as Prometheus
// counters/gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder mirrors engine.Statistics as Prometheus series, registered
// against a private registry so multiple engines in one process (e.g. in
// tests) don't collide on the default global registry.
type Recorder struct {
	registry *prometheus.Registry

	tradesTotal       prometheus.Counter
	volumeTotal       prometheus.Counter
	ordersProcessed   prometheus.Counter
	ordersCancelled   prometheus.Counter
	latencyViolations prometheus.Counter
	pendingEvents     prometheus.Gauge
}

// NewRecorder constructs a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		tradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matching_trades_total",
			Help: "Total number of trades produced by the engine.",
		}),
		volumeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matching_trade_volume_total",
			Help: "Total traded quantity across all trades.",
		}),
		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matching_orders_processed_total",
			Help: "Total number of NEW events routed to a book.",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matching_orders_cancelled_total",
			Help: "Total number of orders successfully cancelled.",
		}),
		latencyViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matching_latency_violations_total",
			Help: "Total number of orders dropped for exceeding their latency budget.",
		}),
		pendingEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matching_pending_events",
			Help: "Number of events currently queued for drain.",
		}),
	}
	reg.MustRegister(
		r.tradesTotal, r.volumeTotal, r.ordersProcessed,
		r.ordersCancelled, r.latencyViolations, r.pendingEvents,
	)
	return r
}

// RecordTrade adds one trade of the given quantity to the counters.
func (r *Recorder) RecordTrade(quantity uint64) {
	r.tradesTotal.Inc()
	r.volumeTotal.Add(float64(quantity))
}

func (r *Recorder) RecordOrderProcessed()   { r.ordersProcessed.Inc() }
func (r *Recorder) RecordCancellation()     { r.ordersCancelled.Inc() }
func (r *Recorder) RecordLatencyViolation() { r.latencyViolations.Inc() }

// SetPendingEvents updates the pending-events gauge to reflect the current
// queue length.
func (r *Recorder) SetPendingEvents(n int) { r.pendingEvents.Set(float64(n)) }

// Handler returns the promhttp handler serving this Recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
