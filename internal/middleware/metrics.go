package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/projectdesk/projectdesk/internal/metrics"
)

// Metrics returns middleware that records request counts and latency
// per route. The chi route pattern is resolved after the handler runs
// so metrics are labeled with the template ("/projects/{projectID}")
// rather than the raw path, keeping label cardinality bounded.
func Metrics(rec metrics.Recorder) func(http.Handler) http.Handler {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}

			rec.ObserveHTTPRequest(r.Method, route, rw.status, time.Since(start))
		})
	}
}
