package middleware

import (
	"fmt"
	"net/http"
	"time"

	logging "github.com/pyra-labs/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware attaches request metadata (ID, IP, method, path) to the
// request context and echoes the request ID back to the client.
func HTTPMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.NewRequestContext(r)
			r = r.WithContext(ctx)

			if meta, ok := logging.FromContext(ctx); ok {
				w.Header().Set("X-Request-ID", meta.RequestID)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HTTPLogger logs one line per request through the facade. Server errors
// are logged at error level with a status+route message, which means
// they also reach the alerting channel under the usual dedup policy.
func HTTPLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			latency := time.Since(start)
			line := fmt.Sprintf("%s %s -> %d (%v)", r.Method, r.URL.Path, rw.statusCode, latency)

			switch {
			case rw.statusCode >= 500:
				logger.ErrorWithContext(r.Context(), fmt.Errorf("HTTP %d %s %s", rw.statusCode, r.Method, r.URL.Path))
			case rw.statusCode >= 400:
				logger.Warn(line)
			default:
				logger.Info(line)
			}
		})
	}
}

// HTTPRecovery converts a handler panic into an error-level log event
// and a 500 response. The panic is absorbed; the server keeps serving.
func HTTPRecovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorWithContext(r.Context(), fmt.Errorf("panic: %v", rec))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
