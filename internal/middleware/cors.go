package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders  = "Authorization, Content-Type, X-API-Key, X-Request-Id"
	corsAllowMethods  = "GET, POST, OPTIONS"
	corsExposeHeaders = "Content-Disposition, X-Request-Id"
	corsMaxAge        = "600"
)

type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
}

func (p corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS answers preflights and decorates responses for the configured
// origins. A "*" entry allows any origin; no credentials are ever allowed
// since the API authenticates with keys, not cookies.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := corsPolicy{origins: map[string]struct{}{}}
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		switch trimmed {
		case "":
		case "*":
			policy.anyOrigin = true
		default:
			policy.origins[trimmed] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if policy.allows(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
					h.Set("Access-Control-Allow-Methods", corsAllowMethods)
					h.Set("Access-Control-Max-Age", corsMaxAge)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
