package v1

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nfs_exports",
		Subsystem: "agent",
		Name:      "http_requests_total",
		Help:      "Agent HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nfs_exports",
		Subsystem: "agent",
		Name:      "http_request_duration_seconds",
		Help:      "Agent HTTP request duration in seconds. Mutating routes include exports lock wait.",
		Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration)
}

func MetricsHandler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c *echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// MetricsMiddleware counts requests per route. Unmatched routes are grouped
// under their raw path so probes do not explode label cardinality.
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			method := c.Request().Method
			route := c.RouteInfo().Path
			status := 0
			if resp, ok := c.Response().(*echo.Response); ok {
				status = resp.Status
			}
			code := strconv.Itoa(status)

			httpRequestsTotal.WithLabelValues(method, route, code).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

			ev := log.Debug()
			if caller, ok := c.Get("caller").(string); ok {
				ev = ev.Str("caller", caller)
			}
			ev.Str("method", method).
				Str("route", route).
				Str("code", code).
				Str("remote", c.RealIP()).
				Dur("duration", elapsed).
				Msg("request")

			return err
		}
	}
}
