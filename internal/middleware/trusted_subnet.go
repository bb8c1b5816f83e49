package middleware

import (
	"net/http"
	"net/netip"

	"github.com/rs/zerolog/log"

	"github.com/idudko/promreg/pkg/meter"
	"github.com/idudko/promreg/pkg/registry"
)

// RejectedScrapesName counts requests the trusted subnet guard turned away,
// tagged with the reason.
const RejectedScrapesName = "http.server.scrapes.rejected"

// Rejection reasons recorded in RejectedScrapesName.
const (
	ReasonMissingIP = "missing_ip"
	ReasonInvalidIP = "invalid_ip"
	ReasonUntrusted = "untrusted"
)

// TrustedSubnetMiddleware only lets scrapes through whose X-Real-IP header
// holds an address inside trustedSubnet. An empty or unparsable trustedSubnet
// lets everything through.
//
// Every rejection is counted in the RejectedScrapesName counter of reg.
//
// Example:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(middleware.TrustedSubnetMiddleware(reg, "10.0.0.0/8"))
//	    r.Get("/metrics", h.MetricsHandler)
//	})
func TrustedSubnetMiddleware(reg *registry.Registry, trustedSubnet string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if trustedSubnet == "" {
			return next
		}

		prefix, err := netip.ParsePrefix(trustedSubnet)
		if err != nil {
			log.Warn().Err(err).Str("trusted_subnet", trustedSubnet).Msg("invalid trusted subnet, scrapes are not restricted")
			return next
		}
		prefix = prefix.Masked()

		reject := func(w http.ResponseWriter, r *http.Request, reason string) {
			if c, err := reg.Counter(RejectedScrapesName,
				meter.WithTags("reason", reason),
				meter.WithDescription("Scrapes rejected by the trusted subnet guard"),
			); err == nil {
				c.Increment()
			}
			log.Warn().
				Str("reason", reason).
				Str("real_ip", r.Header.Get("X-Real-IP")).
				Str("remote_addr", r.RemoteAddr).
				Str("uri", r.RequestURI).
				Msg("scrape rejected")
			http.Error(w, "scrape is not allowed from this address", http.StatusForbidden)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			realIP := r.Header.Get("X-Real-IP")
			if realIP == "" {
				reject(w, r, ReasonMissingIP)
				return
			}

			addr, err := netip.ParseAddr(realIP)
			if err != nil {
				reject(w, r, ReasonInvalidIP)
				return
			}

			if !prefix.Contains(addr.Unmap()) {
				reject(w, r, ReasonUntrusted)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
