package api

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	capturesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captures_recorded_total",
			Help: "Total number of green-phase captures recorded",
		},
		[]string{"light_id"},
	)

	patternCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pattern_cache_hits_total",
			Help: "Pattern analyses served from the cache",
		},
	)

	patternCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pattern_cache_misses_total",
			Help: "Pattern analyses recomputed after a cache miss",
		},
	)
)

// instrument observes every matched route. The endpoint label uses the route
// template, not the raw path, so IDs do not blow up the cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}

		m := httpsnoop.CaptureMetrics(next, w, r)

		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(m.Code)).Inc()
		requestDurationSeconds.WithLabelValues(r.Method, endpoint).Observe(m.Duration.Seconds())
	})
}
