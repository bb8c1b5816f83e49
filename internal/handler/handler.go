// Package handler serves a meter registry over HTTP.
package handler

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/idudko/promreg/internal/model"
	"github.com/idudko/promreg/pkg/exposition"
	"github.com/idudko/promreg/pkg/registry"
)

// NameParam is the repeatable query parameter restricting a scrape to the
// given sample names, as in /metrics?name[]=up&name[]=http_server_requests_duration_seconds_count.
const NameParam = "name[]"

type Handler struct {
	registry *registry.Registry
}

func NewHandler(reg *registry.Registry) *Handler {
	return &Handler{registry: reg}
}

// MetricsHandler writes the registry in the Prometheus text format.
//
// Without name[] parameters every family is rendered. With them only the
// named samples are, and families left without samples are omitted along
// with their HELP and TYPE lines.
func (h *Handler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	var included map[string]struct{}
	if names, ok := r.URL.Query()[NameParam]; ok {
		included = make(map[string]struct{}, len(names))
		for _, n := range names {
			included[n] = struct{}{}
		}
	}

	w.Header().Set("Content-Type", exposition.ContentType)
	w.WriteHeader(http.StatusOK)
	if err := h.registry.WriteTo(w, included); err != nil {
		log.Debug().Err(err).Msg("failed to write scrape")
	}
}

// MetersHandler lists every exported meter with its current measurements as
// JSON.
func (h *Handler) MetersHandler(w http.ResponseWriter, _ *http.Request) {
	meters := h.registry.Meters()
	out := make([]model.Meter, 0, len(meters))
	for _, m := range meters {
		out = append(out, model.FromMeter(m))
	}

	data, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode meters")
		http.Error(w, "Failed to encode meters", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HealthHandler answers liveness probes.
func (h *Handler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
