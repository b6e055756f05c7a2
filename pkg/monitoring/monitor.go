package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	// 按天统计完成情况，outcome: completed / replayed / unchanged
	DayCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_day_completions_total",
			Help: "Completion calls by day and outcome",
		},
		[]string{"day", "outcome"},
	)

	LockedRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_locked_rejections_total",
			Help: "Completion attempts rejected because the day was locked",
		},
		[]string{"day"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_cache_lookups_total",
			Help: "Progress snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	SyncClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "progress_sync_clients",
			Help: "Connected device sync websocket clients",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			DayCompletions,
			LockedRejections,
			CacheLookups,
			SyncClients,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
