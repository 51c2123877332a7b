package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/posterops/poster-bridge/pkg/metrics"
)

// Metrics records per-route request counts and latencies. The matched
// chi route pattern is used as the path label so that parameterized
// routes stay one series.
func Metrics(httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			path := ""
			if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
				path = routeCtx.RoutePattern()
			}
			httpMetrics.ObserveRequest(r.Method, path, rec.status, time.Since(start))
		})
	}
}
