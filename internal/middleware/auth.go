package middleware

import (
	"net/http"
	"strings"

	"github.com/bidops-platform/api/internal/auth"
)

const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests that do not present a key accepted by v,
// either in X-API-Key or as a bearer token. A nil verifier disables the check.
func RequireAPIKey(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			if key == "" {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "API key required", nil)
				return
			}
			if !v.Verify(key) {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "API key is invalid", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAPIKeyID(r.Context(), auth.KeyID(key))))
		})
	}
}

func presentedKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
