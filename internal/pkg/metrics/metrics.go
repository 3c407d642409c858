package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "iberseis",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "iberseis",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Estimator metrics
	EstimatesComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "estimator",
		Name:      "estimates_total",
		Help:      "Total travel-time estimates computed",
	})

	EstimateErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "estimator",
		Name:      "errors_total",
		Help:      "Total rejected travel-time estimates by reason",
	}, []string{"reason"})

	EstimatedDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "iberseis",
		Subsystem: "estimator",
		Name:      "distance_km",
		Help:      "Distribution of estimated epicentral distances",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20016},
	})

	// FDSN metrics
	FDSNRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "iberseis",
		Subsystem: "fdsn",
		Name:      "request_duration_seconds",
		Help:      "Duration of FDSN web service requests",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"service"})

	FDSNRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "fdsn",
		Name:      "request_errors_total",
		Help:      "Total failed FDSN web service requests",
	}, []string{"service"})

	// Messaging metrics
	PredictionsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "realtime",
		Name:      "predictions_published_total",
		Help:      "Total arrival predictions published",
	})

	EventsPolled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "realtime",
		Name:      "events_polled_total",
		Help:      "Total new seismic events picked up by the poller",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iberseis",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iberseis",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iberseis",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iberseis",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iberseis",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat reported as gauges.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics updates database pool gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}
