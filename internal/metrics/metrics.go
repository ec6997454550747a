package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	syncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_runs_total",
			Help: "Total number of sync operations by mode and result.",
		},
		[]string{"mode", "result"},
	)
	syncedProductsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_synced_products_total",
			Help: "Total number of product records written by sync.",
		},
		[]string{"mode"},
	)
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_webhook_events_total",
			Help: "Total number of received webhook events by result.",
		},
		[]string{"result"},
	)
	remoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_remote_requests_total",
			Help: "Total number of remote catalog API requests.",
		},
		[]string{"endpoint", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		syncRunsTotal,
		syncedProductsTotal,
		webhookEventsTotal,
		remoteRequestsTotal,
	)
}

func RecordRequest(
	method, endpoint string, statusCode int, duration time.Duration,
) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).
		Observe(duration.Seconds())
}

func RecordSync(mode, result string, products int) {
	syncRunsTotal.WithLabelValues(mode, result).Inc()
	if products > 0 {
		syncedProductsTotal.WithLabelValues(mode).Add(float64(products))
	}
}

func RecordWebhook(result string) {
	webhookEventsTotal.WithLabelValues(result).Inc()
}

func RecordRemoteRequest(endpoint, result string) {
	remoteRequestsTotal.WithLabelValues(endpoint, result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}
