package middleware

import (
	"encoding/json"
	"net/http"
)

type errorEnvelope struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"requestId"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeEnvelope(w, status, errorEnvelope{
		Error: errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		RequestID: RequestIDFromContext(r.Context()),
	})
}

// ValidationErrorHandler renders OpenAPI request validation failures in the
// API's error envelope. The validator does not pass the request, so the ID
// comes from the response header RequestID already set.
func ValidationErrorHandler(w http.ResponseWriter, message string, statusCode int) {
	writeEnvelope(w, statusCode, errorEnvelope{
		Error:     errorBody{Code: "validation_error", Message: message},
		RequestID: w.Header().Get(RequestIDHeader),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, envelope errorEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}
