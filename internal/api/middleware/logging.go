// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// statusRecorder captures the response status and body size for the logging
// and metrics middleware. Flush must pass through for the SSE stream.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.size += n
	return n, err
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger tags each request with a short ID and logs it. Quiet unless
// verbose is set or the response is an error.
func RequestLogger(verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := uuid.New().String()[:8]
			w.Header().Set("X-Request-ID", id)

			rec := record(w)
			next.ServeHTTP(rec, r)

			if verbose || rec.status >= 400 {
				log.Printf("[http] %s %s %s -> %d (%dB, %v)",
					id, r.Method, r.URL.Path, rec.status, rec.size, time.Since(start))
			}
		})
	}
}
