package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	leadsReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_reconciled_total",
			Help: "Leads written or folded by reconciliation, by outcome",
		},
		[]string{"outcome"},
	)

	importRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_import_rows",
			Help:    "Rows received per bulk import",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 2500, 5000},
		},
	)

	importsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_imports_rejected_total",
			Help: "Bulk imports rejected, by reason",
		},
		[]string{"reason"},
	)

	shortLinkClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "short_link_clicks_total",
			Help: "Short link redirects, by result",
		},
		[]string{"result"},
	)
)

// Middleware records request counts and latency per route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus exposition format
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordReconcile(inserted, updated, merged, skipped int) {
	leadsReconciled.WithLabelValues("inserted").Add(float64(inserted))
	leadsReconciled.WithLabelValues("updated").Add(float64(updated))
	leadsReconciled.WithLabelValues("merged").Add(float64(merged))
	leadsReconciled.WithLabelValues("skipped").Add(float64(skipped))
}

func RecordImportRows(rows int) {
	importRows.Observe(float64(rows))
}

func RecordImportRejected(reason string) {
	importsRejected.WithLabelValues(reason).Inc()
}

func RecordShortLinkClick(result string) {
	shortLinkClicks.WithLabelValues(result).Inc()
}
