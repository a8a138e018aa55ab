// Package metrics defines the Prometheus instruments of the agent client:
// gateway traffic, session transitions and booking submissions.
//
// Metrics are registered on the Registerer passed to New so tests and
// embedding applications can keep their own registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "afribook"

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

type Metrics struct {
	// GatewayRequests counts completed gateway calls.
	// Labels: method, route (ids collapsed), status ("error" on transport failure).
	GatewayRequests *prometheus.CounterVec

	// GatewayDuration observes gateway call latency with the same labels.
	GatewayDuration *prometheus.HistogramVec

	// SessionTeardowns counts sessions cleared because the API answered 401/403.
	SessionTeardowns *prometheus.CounterVec

	// SessionTransitions counts session lifecycle changes.
	// Label: event (login, login_failed, logout, refresh, refresh_failed, forced_logout).
	SessionTransitions *prometheus.CounterVec

	// BookingSubmissions counts manual booking attempts.
	// Label: result (created, rejected_locally, failed).
	BookingSubmissions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Count of API requests issued through the gateway.",
		}, []string{"method", "route", "status"}),

		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of API requests issued through the gateway.",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),

		SessionTeardowns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "session_teardowns_total",
			Help:      "Sessions cleared after an unauthorized or forbidden response.",
		}, []string{"status"}),

		SessionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session lifecycle transitions.",
		}, []string{"event"}),

		BookingSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "submissions_total",
			Help:      "Manual booking submissions by result.",
		}, []string{"result"}),
	}
}

// Nop returns metrics bound to a private registry nobody scrapes.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
