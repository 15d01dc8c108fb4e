package middleware

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	apiKeyIDKey  contextKey = "api_key_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return ""
	}
	return v
}

func WithAPIKeyID(ctx context.Context, keyID string) context.Context {
	return context.WithValue(ctx, apiKeyIDKey, keyID)
}

// APIKeyIDFromContext returns the fingerprint of the key that authenticated
// the request, or "" when keys are not enforced.
func APIKeyIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(apiKeyIDKey).(string)
	return v
}
