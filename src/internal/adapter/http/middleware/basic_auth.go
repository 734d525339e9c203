package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const authRealm = `Basic realm="payment-reversal-engine"`

// BasicAuth admits callers presenting the configured channel id and key.
func BasicAuth(channelID, channelKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := logger.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"requestId": chimiddleware.GetReqID(r.Context()),
			}

			if channelID == "" || channelKey == "" {
				logger.Error("basic auth channel credentials are not configured", nil, fields)
				http.Error(w, "server auth configuration is missing", http.StatusInternalServerError)
				return
			}

			id, key, ok := r.BasicAuth()
			if !ok || !secureEqual(id, channelID) || !secureEqual(key, channelKey) {
				fields["credentials"] = "invalid_or_missing"
				logger.Warn("basic auth rejected request", fields)
				w.Header().Set("WWW-Authenticate", authRealm)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
