package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// LoggingMiddleware is an HTTP middleware that logs request and response information.
//
// This middleware captures and logs the following information for each request:
//   - Request ID assigned by chi's RequestID middleware, when present
//   - HTTP method and request URI
//   - HTTP status code and response size in bytes
//   - Request duration
//
// The log entries are structured using zerolog for easy parsing and filtering.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(chimiddleware.RequestID)
//	r.Use(middleware.LoggingMiddleware)
//	r.Get("/metrics", handler)
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newRecorder(w)
		next.ServeHTTP(rec, r)
		log.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", rec.statusCode).
			Int("size", rec.size).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}

// recorder wraps http.ResponseWriter to capture response status and size.
//
// Thread Safety:
//
//	This struct is NOT safe for concurrent use. A new instance should be
//	created for each request.
type recorder struct {
	http.ResponseWriter     // Embedded standard ResponseWriter
	statusCode          int // HTTP status code returned by the handler
	size                int // Total response size in bytes
}

func newRecorder(w http.ResponseWriter) *recorder {
	if rec, ok := w.(*recorder); ok {
		return rec
	}
	return &recorder{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the HTTP status code and forwards it to the underlying ResponseWriter.
func (rec *recorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// Write captures the response data size and forwards it to the underlying ResponseWriter.
func (rec *recorder) Write(b []byte) (int, error) {
	size, err := rec.ResponseWriter.Write(b)
	rec.size += size
	return size, err
}

func (rec *recorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
