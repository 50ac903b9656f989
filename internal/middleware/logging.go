package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// DurationObserver records request latency by method and status.
type DurationObserver interface {
	ObserveRequest(method string, status int, elapsed time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs method, path, status and duration for every request. A nil
// observer skips latency metrics.
func Logging(logger *slog.Logger, observer DurationObserver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		if observer != nil {
			observer.ObserveRequest(r.Method, rec.status, elapsed)
		}
		logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", strconv.Itoa(rec.status),
			"duration", elapsed,
		)
	})
}
