package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clarity_events_ingested_total",
		Help: "Total number of client events appended to the event log, labelled by path.",
	}, []string{"path"})

	EventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clarity_events_rejected_total",
		Help: "Total number of event submissions rejected by validation.",
	})

	AggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clarity_aggregation_duration_ms",
		Help:    "Latency of event log aggregation queries in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"query"})

	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clarity_login_failures_total",
		Help: "Total number of rejected login attempts.",
	})

	WaitlistSignups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clarity_waitlist_signups_total",
		Help: "Total number of waitlist submissions, labelled by whether a new row was created.",
	}, []string{"created"})
)
