package contract

import (
	"context"

	"github.com/google/uuid"
)

// CorrelationHeader is the fixed header name used to read an inbound
// correlation id and to attach the resolved id to every outward response.
const CorrelationHeader = "X-Correlation-ID"

type correlationKey struct{}

// ResolveCorrelationID reuses a non-empty inbound header value verbatim,
// otherwise generates a new id. No uniqueness verification is performed.
func ResolveCorrelationID(incoming string) string {
	if incoming != "" {
		return incoming
	}
	return uuid.NewString()
}

// withCorrelationID stores the resolved id in the context so handlers can
// forward it to downstream calls.
func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID extracts the correlation id from a handler context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}
