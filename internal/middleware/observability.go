package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/observability"
)

const apiPrefix = "/api/v1"

// Observability records request metrics and one access log line per API call.
// Health probes are left out so liveness polling does not drown the logs.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if !tracked(c.Path()) {
			return c.Next()
		}

		started := time.Now()
		err := c.Next()
		elapsed := time.Since(started)

		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		code := strconv.Itoa(status)

		observability.APIRequests().WithLabelValues(method, route, code).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.APIErrors().WithLabelValues(method, route, code).Inc()
		}

		event := logger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = logger.Warn()
		}
		if userID := UserID(c); userID != 0 {
			event = event.Uint("user_id", userID)
		}
		event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("latency_bucket", latencyBucket(elapsed)).
			Msg("api request")

		return err
	}
}

func tracked(path string) bool {
	if !strings.HasPrefix(path, apiPrefix) {
		return false
	}
	return !strings.HasPrefix(path, apiPrefix+"/health")
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}

var latencyCutoffs = []time.Duration{
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

func latencyBucket(elapsed time.Duration) string {
	for _, cutoff := range latencyCutoffs {
		if elapsed <= cutoff {
			return "<=" + cutoff.String()
		}
	}
	return ">" + latencyCutoffs[len(latencyCutoffs)-1].String()
}
