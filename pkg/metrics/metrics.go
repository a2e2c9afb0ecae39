// Package metrics exposes Prometheus collectors for the requirement
// workflow and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requirementsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reqman_requirements_created_total",
		Help: "Total number of requirements created",
	})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqman_status_transitions_total",
		Help: "Total number of attempted status transitions by outcome",
	}, []string{"from", "to", "outcome"})

	historyRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reqman_history_records_total",
		Help: "Total number of history records appended by action kind",
	}, []string{"action"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reqman_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// RecordCreation counts a created requirement.
func RecordCreation() {
	requirementsCreated.Inc()
}

// RecordTransition counts a status transition attempt.
// outcome is "success" or "denied".
func RecordTransition(from, to, outcome string) {
	statusTransitions.WithLabelValues(from, to, outcome).Inc()
}

// RecordHistoryAppend counts an appended history record.
func RecordHistoryAppend(action string) {
	historyRecords.WithLabelValues(action).Inc()
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware observes request durations by method and response status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		httpDuration.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
