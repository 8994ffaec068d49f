package gateway

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// upstreamReqs counts outbound calls by upstream, route name and outcome.
	// status is the numeric code, or "transport" when no response arrived.
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to upstream services.",
		},
		[]string{"upstream", "route", "status"},
	)

	upstreamLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream", "route"},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamLat)
}

func observe(upstream, route string, status int, start time.Time) {
	s := "transport"
	if status > 0 {
		s = strconv.Itoa(status)
	}
	upstreamReqs.WithLabelValues(upstream, route, s).Inc()
	upstreamLat.WithLabelValues(upstream, route).Observe(time.Since(start).Seconds())
}
