package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
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
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// FriendshipTransitions counts relationship operations by their outcome
	FriendshipTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walltribe_friendship_transitions_total",
			Help: "Relationship operations by outcome",
		},
		[]string{"outcome"},
	)

	Reactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walltribe_reactions_total",
			Help: "Reaction mutations by action and whether they changed a fact",
		},
		[]string{"action", "outcome"},
	)

	// CounterRepairs counts image counters that a recount had to overwrite
	CounterRepairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walltribe_counter_repairs_total",
			Help: "Image counters corrected by a recount",
		},
		[]string{"counter"},
	)

	CounterRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "walltribe_counter_update_retries_total",
			Help: "Failed counter increments that were retried",
		},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			FriendshipTransitions,
			Reactions,
			CounterRepairs,
			CounterRetries,
		)
	})
}

// Middleware records request count and latency per route
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo write the error response so the recorded status is final
				c.Error(err)
			}

			RequestCounter.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(c.Response().Status),
			).Inc()
			RequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler serves the default registry
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
