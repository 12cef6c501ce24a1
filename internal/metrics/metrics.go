package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Invokes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rudderbridge_invokes_total",
		Help: "Total number of boundary commands invoked, labelled by command and status.",
	}, []string{"command", "status"})

	InvokeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rudderbridge_invoke_duration_ms",
		Help:    "Boundary command round-trip latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	}, []string{"command"})

	EventsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rudderbridge_events_forwarded_total",
		Help: "Total number of events handed to the transport client, labelled by kind.",
	}, []string{"kind"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rudderbridge_events_dropped_total",
		Help: "Total number of events dropped by the per-kind rate cap.",
	}, []string{"kind"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rudderbridge_delivery_failures_total",
		Help: "Total number of events the transport client failed to deliver.",
	}, []string{"kind"})

	PageViewsAutoTracked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rudderbridge_page_views_auto_tracked_total",
		Help: "Total number of page views emitted by the URL watch hook.",
	})
)
