// Package metrics provides Prometheus metrics for NoiseWatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "noisewatch"

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Monitor metrics
var (
	// SamplesPolled counts successful sample polls.
	SamplesPolled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "samples_polled_total",
			Help:      "Total samples fetched by the poll loop",
		},
	)

	// PollErrors counts failed measurement-store or directory fetches.
	PollErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "poll_errors_total",
			Help:      "Total poll ticks that failed to fetch data",
		},
	)

	// CurrentLevel tracks the last observed sound level per room.
	CurrentLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "current_level_db",
			Help:      "Last observed sound level in decibels",
		},
		[]string{"room"},
	)

	// AlertsFired counts fired threshold alerts per room.
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "alerts_fired_total",
			Help:      "Total threshold alerts fired",
		},
		[]string{"room"},
	)

	// HistoryResets counts daily alert-history resets.
	HistoryResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "history_resets_total",
			Help:      "Total daily alert-history resets",
		},
	)
)

// Ingest metrics
var (
	// SamplesIngested counts samples accepted from devices.
	SamplesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "samples_total",
			Help:      "Total samples accepted from devices",
		},
		[]string{"room"},
	)

	// SamplesRejected counts samples rejected on validation.
	SamplesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "samples_rejected_total",
			Help:      "Total samples rejected on validation",
		},
	)
)

// Analytics metrics
var (
	// AggregationDuration tracks summary computation latency by mode.
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "aggregation_duration_seconds",
			Help:      "Summary computation latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"mode"},
	)

	// EmptyWindows counts aggregations that found no in-window data.
	EmptyWindows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "empty_windows_total",
			Help:      "Total aggregations over an empty window",
		},
		[]string{"mode"},
	)
)

// Notifier metrics
var (
	// NotificationsSent counts dispatched alert notifications per channel.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "sent_total",
			Help:      "Total alert notifications dispatched",
		},
		[]string{"channel"},
	)

	// NotificationErrors counts failed notification deliveries per channel.
	NotificationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "errors_total",
			Help:      "Total failed notification deliveries",
		},
		[]string{"channel"},
	)

	// NotificationsRateLimited counts notifications dropped by the limiter.
	NotificationsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "rate_limited_total",
			Help:      "Total notifications dropped by rate limiting",
		},
	)
)
