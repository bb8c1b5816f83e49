package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/idudko/promreg/pkg/meter"
	"github.com/idudko/promreg/pkg/registry"
)

// RequestTimerName is the meter every served request is recorded into.
const RequestTimerName = "http.server.requests"

// MetricsMiddleware times each request into the RequestTimerName timer of reg.
//
// The timer is tagged with the HTTP method, the chi route pattern (so path
// parameters do not explode cardinality) and the response status. Requests
// that match no route are tagged with uri "NOT_FOUND".
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(middleware.MetricsMiddleware(reg))
func MetricsMiddleware(reg *registry.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := reg.Clock().Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			uri := "NOT_FOUND"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					uri = pattern
				}
			}

			timer, err := reg.Timer(RequestTimerName,
				meter.WithTags("method", r.Method, "uri", uri, "status", strconv.Itoa(rec.statusCode)),
				meter.WithDescription("Duration of HTTP server requests"),
			)
			if err != nil {
				log.Debug().Err(err).Msg("request timer unavailable")
				return
			}
			timer.Record(reg.Clock().Since(start))
		})
	}
}
