package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks ingested"},
		[]string{"exchange"},
	)
	TicksMalformed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ticks_malformed_total", Help: "Ticks dropped at the transport boundary"},
	)
	TicksDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ticks_dropped_total", Help: "Ticks dropped on full downstream buffers"},
	)
	MergeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "merge_errors_total", Help: "Per-symbol merge/persist failures"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_rejected_total", Help: "Orders rejected by the broker"},
		[]string{"symbol"},
	)
	TrailUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trail_updates_total", Help: "Trailing stop modifications applied"},
		[]string{"symbol"},
	)
	StreamReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "stream_reconnects_total", Help: "Tick stream reconnect attempts"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal, TicksMalformed, TicksDropped,
		MergeErrors, OrdersTotal, OrdersRejected,
		TrailUpdates, StreamReconnects,
	)
}
