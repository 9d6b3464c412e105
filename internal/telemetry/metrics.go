package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOk        = "ok"
	OutcomeHttpError = "http_error"
	OutcomeFailed    = "failed"
)

var (
	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gymnasier_upstream_requests_total",
		Help: "Number of requests sent to an upstream provider, by outcome",
	}, []string{"provider", "outcome"})
	upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gymnasier_upstream_request_duration_seconds",
		Help:    "Time spent waiting for upstream responses, excluding rate limit waits",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	travelTimeCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gymnasier_travel_time_cache_total",
		Help: "Travel time cache lookups, by result",
	}, []string{"result"})
	exportedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymnasier_exported_rows_total",
		Help: "Number of study path rows produced",
	})
)

func init() {
	prometheus.MustRegister(upstreamRequests, upstreamDuration, travelTimeCache, exportedRows)
}

func CountCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	travelTimeCache.WithLabelValues(result).Inc()
}

func CountRows(n int) {
	exportedRows.Add(float64(n))
}

// WriteMetricsFile writes every registered metric in the text exposition
// format, suitable for node_exporter's textfile collector.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
