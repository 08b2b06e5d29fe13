package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

// responseWriter captures the status code written by a handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware assigns each request a uuid, propagates it through
// the context and the X-Request-ID header, and records request metrics.
func RequestMiddleware(logger *logging.StructuredLogger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := logging.WithRequestID(r.Context(), requestID)
			w.Header().Set("X-Request-ID", requestID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			collector.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(wrapped.statusCode))
			collector.APIRequestDuration.WithLabelValues(r.URL.Path).Observe(duration.Seconds())

			logger.Debug(ctx, "[HTTP_REQUEST] Request handled", logging.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
		})
	}
}
