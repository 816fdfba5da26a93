package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sellerdesk/taskd/internal/api/shared"
	"github.com/sellerdesk/taskd/internal/platform/logger"
	"github.com/sellerdesk/taskd/internal/redact"
)

// TokenQueryParam is accepted in place of the Authorization header, for
// websocket clients that cannot set request headers.
const TokenQueryParam = "access_token"

// AuthMiddleware guards the admin API with a single static bearer token.
type AuthMiddleware struct {
	token []byte
}

// NewAuthMiddleware creates an AuthMiddleware. An empty token disables the
// check entirely.
func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{token: []byte(token)}
}

// Enabled reports whether requests are checked at all.
func (m *AuthMiddleware) Enabled() bool {
	return len(m.token) > 0
}

// Authenticate rejects requests that do not present the configured token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), m.token) != 1 {
			logger.FromContext(r.Context()).Warn("rejected request with invalid token",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr)
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, true
	}
	return "", false
}

// HideQueryToken replaces the access_token query parameter in the request
// line seen by later middleware, so access logs never record it. Routing and
// Authenticate still read the real value from r.URL. It must run before
// chi's Logger.
func HideQueryToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if !q.Has(TokenQueryParam) {
			next.ServeHTTP(w, r)
			return
		}

		q.Set(TokenQueryParam, redact.RedactionPlaceholder)
		masked := *r.URL
		masked.RawQuery = q.Encode()

		r = r.WithContext(r.Context())
		r.RequestURI = masked.RequestURI()
		next.ServeHTTP(w, r)
	})
}
