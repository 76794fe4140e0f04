// Package metrics exposes prometheus collectors for the web BFF.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Proxy metrics
	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitely_web_proxy_requests_total",
			Help: "Total number of requests forwarded to the API gateway",
		},
		[]string{"method", "status"},
	)

	ProxyErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitely_web_proxy_errors_total",
			Help: "Total number of proxy requests that failed before a gateway response",
		},
	)

	UpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "invitely_web_upstream_duration_seconds",
			Help:    "Duration of calls to the API gateway in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Session metrics
	SessionsEstablishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitely_web_sessions_established_total",
			Help: "Total number of session cookies issued",
		},
		[]string{"source"}, // login or external identity callback
	)

	// Preview channel metrics
	PreviewMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitely_web_preview_messages_total",
			Help: "Total number of preview channel envelopes relayed",
		},
		[]string{"type", "direction"},
	)

	PreviewConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "invitely_web_preview_connections",
			Help: "Currently open preview channel websocket connections",
		},
		[]string{"role"},
	)
)
