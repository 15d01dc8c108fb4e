package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidops-platform/api/internal/auth"
)

func TestRequireAPIKey(t *testing.T) {
	key, err := auth.GenerateAPIKey()
	require.NoError(t, err)
	encoded, err := auth.HashAPIKey(key)
	require.NoError(t, err)
	verifier, err := auth.NewVerifier(encoded)
	require.NoError(t, err)

	var keyID string
	handler := RequestID(RequireAPIKey(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyID = APIKeyIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong key", APIKeyHeader, "bid_nope", http.StatusUnauthorized},
		{"header", APIKeyHeader, key, http.StatusNoContent},
		{"bearer", "Authorization", "Bearer " + key, http.StatusNoContent},
		{"basic scheme", "Authorization", "Basic " + key, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/imports/active-bids", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
			if tc.want == http.StatusNoContent {
				assert.Equal(t, auth.KeyID(key), keyID)
			}
			if tc.want == http.StatusUnauthorized {
				assert.Contains(t, rr.Body.String(), `"code":"unauthorized"`)
				assert.Contains(t, rr.Body.String(), `"requestId":"`+rr.Header().Get("X-Request-Id")+`"`)
			}
		})
	}
}

func TestRequireAPIKey_NilVerifierAllowsAll(t *testing.T) {
	handler := RequireAPIKey(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exports/active-bids", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
