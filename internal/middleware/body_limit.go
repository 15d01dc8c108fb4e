package middleware

import (
	"net/http"
	"sort"
	"strings"
)

// BodyLimitOverride raises or lowers the body limit for paths under
// PathPrefix. Prefixes match with or without the leading /api.
type BodyLimitOverride struct {
	PathPrefix string
	MaxBytes   int64
}

// LimitBodyBytesWithOverrides caps request bodies at defaultMax unless a
// more specific override applies. The longest matching prefix wins.
func LimitBodyBytesWithOverrides(defaultMax int64, overrides []BodyLimitOverride) func(http.Handler) http.Handler {
	active := make([]BodyLimitOverride, 0, len(overrides))
	for _, o := range overrides {
		if o.PathPrefix != "" && o.MaxBytes > 0 {
			active = append(active, o)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return len(active[i].PathPrefix) > len(active[j].PathPrefix)
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			maxBytes := defaultMax
			path := r.URL.Path
			apiPath := strings.TrimPrefix(path, "/api")
			for _, o := range active {
				if strings.HasPrefix(path, o.PathPrefix) || strings.HasPrefix(apiPath, o.PathPrefix) {
					maxBytes = o.MaxBytes
					break
				}
			}
			if maxBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
