package httpx

import (
	"net/http"

	"github.com/bidops-platform/api/internal/middleware"
)

// Code is the machine-readable error code clients switch on.
type Code string

const (
	CodeInvalidBody        Code = "invalid_body"
	CodeInvalidContentType Code = "invalid_content_type"
	CodeInvalidMultipart   Code = "invalid_multipart"
	CodeMissingFile        Code = "missing_file"
	CodeInvalidFile        Code = "invalid_file"
	CodeUnsupportedFile    Code = "unsupported_file_type"
	CodePayloadTooLarge    Code = "payload_too_large"
	CodeEmptyBatch         Code = "empty_batch"
	CodeTooManyRows        Code = "too_many_rows"
	CodeUnknownKind        Code = "unknown_kind"
	CodeInternal           Code = "internal_error"
)

type ErrorEnvelope struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"requestId"`
}

type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code Code, message string, details any) {
	WriteJSON(w, status, ErrorEnvelope{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}
