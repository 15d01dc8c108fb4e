package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantReached bool
	}{
		{"preflight from allowed origin", []string{"http://localhost:3000/"}, http.MethodOptions, "http://localhost:3000", http.StatusNoContent, "http://localhost:3000", false},
		{"preflight from unknown origin", []string{"http://localhost:3000"}, http.MethodOptions, "https://evil.example", http.StatusNoContent, "", false},
		{"simple request", []string{"http://localhost:3000"}, http.MethodGet, "http://localhost:3000", http.StatusOK, "http://localhost:3000", true},
		{"wildcard", []string{"*"}, http.MethodPost, "https://office.example", http.StatusOK, "https://office.example", true},
		{"no origin", []string{"*"}, http.MethodGet, "", http.StatusOK, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(tc.method, "/api/imports/active-bids", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()
			CORS(tc.allowed)(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.wantReached, reached)
			assert.Equal(t, "Origin", rr.Header().Get("Vary"))
			if tc.method == http.MethodOptions && tc.wantOrigin != "" {
				assert.Equal(t, corsAllowMethods, rr.Header().Get("Access-Control-Allow-Methods"))
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}
