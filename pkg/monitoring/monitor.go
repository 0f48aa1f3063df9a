package monitoring

import (
	"strconv"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 手写作业识别管线计数，outcome: rejected / text_layer / extracted / empty / upstream_error
	ExtractionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handwritten_extraction_total",
			Help: "Total number of handwritten answer extraction attempts by outcome",
		},
		[]string{"outcome"},
	)

	ExtractionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "handwritten_extraction_duration_seconds",
			Help:    "Duration of handwritten answer extraction calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ReviewCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_reviews_total",
			Help: "Total number of submission reviews by reviewer type",
		},
		[]string{"reviewer"},
	)

	NotifyOnlineUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_online_users",
			Help: "Number of users connected to the notification hub",
		},
	)

	NotifyMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_messages_total",
			Help: "Total number of notification messages pushed by type",
		},
		[]string{"type"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ExtractionCounter)
	prometheus.MustRegister(ExtractionDuration)
	prometheus.MustRegister(ReviewCounter)
	prometheus.MustRegister(NotifyOnlineUsers)
	prometheus.MustRegister(NotifyMessageCounter)
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
