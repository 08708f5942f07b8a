package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// gwReqs counts backend calls by method and outcome (ok|network|auth|server|unknown).
	gwReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of backend API requests by outcome.",
		},
		[]string{"method", "outcome"},
	)

	gwLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// gwLogouts counts forced session invalidations (one per episode).
	gwLogouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_logout_episodes_total",
			Help: "Number of forced logouts triggered by 401/403 responses.",
		},
	)
)

func init() {
	prometheus.MustRegister(gwReqs, gwLat, gwLogouts)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}
