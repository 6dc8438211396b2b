package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Telemetry wraps an http.Handler with OpenTelemetry instrumentation.
// Records request duration, active requests, request/response sizes,
// and creates a trace span per request. Health probes are excluded to
// keep the liveness check out of the traces.
func Telemetry(next http.Handler) http.Handler {
	return otelhttp.NewMiddleware("kakeibo-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)(next)
}
