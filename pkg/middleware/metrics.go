package middleware

import (
	"net/http"
	"strconv"
	"time"

	"cinema-ledger/pkg/metrics"
)

// Metrics records request latency labelled by the matched chi route pattern.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusRecorder(w)

			next.ServeHTTP(rw, r)

			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, routePattern(r), strconv.Itoa(rw.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}
