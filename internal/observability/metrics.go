package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	StageMovesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stage_moves_total",
			Help: "Total number of contact stage assignments",
		},
	)

	StageReorderRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stage_reorder_retries_total",
			Help: "Total number of stage order batches retried after a store error",
		},
	)

	NotificationsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Total number of notifications delivered to admin sessions",
		},
		[]string{"kind"},
	)

	HistoryAppendFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "history_append_failures_total",
			Help: "Total number of swallowed history-ledger append failures",
		},
	)

	RelaySubscribed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_relay_subscribed",
			Help: "1 while the notification relay holds a live subscription",
		},
	)
)

// Register registers all metrics with the default registry. Call once, from
// main.
func Register() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(StageMovesTotal)
	prometheus.MustRegister(StageReorderRetriesTotal)
	prometheus.MustRegister(NotificationsDeliveredTotal)
	prometheus.MustRegister(HistoryAppendFailuresTotal)
	prometheus.MustRegister(RelaySubscribed)
}

// RequestMetrics records per-request counters and latency. Uses the route
// template, not the raw URL, to keep label cardinality bounded.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler exposes the prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
