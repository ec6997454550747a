package httphandler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/catalog-cache/internal/metrics"
)

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// RequestID tags every response with an X-Request-Id for log
// correlation, generating one when the caller did not send any.
func RequestID(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// Metrics records request counters and latency per request path.
func Metrics(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		metrics.RecordRequest(r.Method, r.URL.Path, sw.status, time.Since(start))
	}
	return http.HandlerFunc(hf)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
