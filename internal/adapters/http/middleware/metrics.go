package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coinvault",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Business metrics
var (
	// LedgerOperationsTotal считает операции по типу и исходу.
	// result: created (новая операция), replayed (повтор по ключу), error.
	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinvault",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of wallet mutation operations",
		},
		[]string{"operation", "result"},
	)

	// IdempotencyReplaysTotal считает отданные из кэша повторы.
	IdempotencyReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coinvault",
			Subsystem: "ledger",
			Name:      "idempotency_replays_total",
			Help:      "Total number of responses served from the idempotency cache",
		},
	)
)

// Metrics middleware собирает Prometheus метрики по HTTP запросам.
//
// Для path используется шаблон маршрута (c.FullPath), а не сырой URL,
// чтобы не взрывать cardinality UUID-ами из path параметров.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			// Неизвестный маршрут (404) - не плодим лейблы
			path = "unmatched"
		}

		start := time.Now()
		httpRequestsInFlight.Inc()

		c.Next()

		httpRequestsInFlight.Dec()
		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration.Seconds())
	}
}

// ObserveLedgerOperation инкрементирует бизнес-метрики мутаций.
func ObserveLedgerOperation(operation string, duplicate bool, err error) {
	result := "created"
	switch {
	case err != nil:
		result = "error"
	case duplicate:
		result = "replayed"
		IdempotencyReplaysTotal.Inc()
	}
	LedgerOperationsTotal.WithLabelValues(operation, result).Inc()
}
