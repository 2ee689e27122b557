// Package logging carries per-request IDs through context so handler
// logs and upstream envelopes correlate.
package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// NewRequestID generates a fresh request id in the agent-{uuid} form the
// upstream expects in its envelope.
func NewRequestID() string {
	return "agent-" + uuid.New().String()
}

// WithRequestID injects a request id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request id from the context, or "" when
// none was set.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
