package middleware

import (
	"bytes"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/idudko/promreg/pkg/hash"
)

// HashHeader carries the HMAC-SHA256 signature of a response body.
const HashHeader = "HashSHA256"

// SigningMiddleware signs response bodies with a shared secret key.
//
// Scrapers holding the same key can verify that an exposition was produced
// by this process and was not altered on the way.
//
// Parameters:
//   - key: Secret key used for HMAC-SHA256 signatures (empty string disables signing)
//
// Behavior:
//   - If key is empty: Passes the response through untouched
//   - Otherwise: Buffers the body, sets the HashSHA256 header to its
//     hexadecimal signature, then writes status and body
//
// Register it after any compression middleware so the signature covers the
// uncompressed body.
//
// Example:
//
//	r.Use(middleware.SigningMiddleware("my-secret-key"))
//
//	// Client verifies:
//	hash.ValidateHash(body, "my-secret-key", resp.Header.Get("HashSHA256"))
func SigningMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &signingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)

			w.Header().Set(HashHeader, hash.ComputeHash(sw.body.Bytes(), key))
			w.WriteHeader(sw.statusCode)
			if _, err := w.Write(sw.body.Bytes()); err != nil {
				log.Debug().Err(err).Str("uri", r.RequestURI).Msg("failed to write signed response")
			}
		})
	}
}

type signingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (s *signingResponseWriter) WriteHeader(code int) {
	s.statusCode = code
}

func (s *signingResponseWriter) Write(b []byte) (int, error) {
	return s.body.Write(b)
}
