package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	applogger "PriceCast/pkg/logger"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricecast",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status",
		},
		[]string{"route", "method", "status"},
	)

	// upper buckets cover upstream fetches
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricecast",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "class"},
	)

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pricecast",
		Name:      "http_in_flight_requests",
		Help:      "HTTP requests currently being served",
	})

	httpThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricecast",
			Name:      "http_throttled_total",
			Help:      "Requests rejected by the per-client rate limit",
		},
		[]string{"route"},
	)

	regOnce sync.Once
)

// MetricsConfig configures Metrics.
type MetricsConfig struct {
	Logger        *applogger.Logger
	SlowThreshold time.Duration // warn above this; zero disables
	Skip          []string      // route templates left unmeasured, e.g. the scrape endpoint
}

// Metrics records request metrics labelled by the echo route template, not the raw URL.
// Server errors are logged at error level and slow requests at warn.
func Metrics(cfg MetricsConfig) echo.MiddlewareFunc {
	regOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInFlight, httpThrottled)
	})
	l := cfg.Logger
	if l == nil {
		l = applogger.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.Skip))
	for _, p := range cfg.Skip {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := routeLabel(c)
			if _, ok := skip[route]; ok {
				return next(c)
			}
			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()

			err := next(c)

			code := responseCode(c, err)
			duration := time.Since(start)
			httpRequestsTotal.WithLabelValues(route, c.Request().Method, strconv.Itoa(code)).Inc()
			httpRequestDuration.WithLabelValues(route, statusClass(code)).Observe(duration.Seconds())
			if code == http.StatusTooManyRequests {
				httpThrottled.WithLabelValues(route).Inc()
			}

			switch {
			case code >= 500:
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.Int("status", code),
					applogger.Duration("duration_ms", duration),
				)
			case cfg.SlowThreshold > 0 && duration >= cfg.SlowThreshold:
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("uri", c.Request().RequestURI),
					applogger.Duration("duration_ms", duration),
				)
			}
			return err
		}
	}
}

// responseCode is the status the client will see, including errors echo has not rendered yet.
func responseCode(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
