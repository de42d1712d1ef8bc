// Package requestctx carries request-scoped identifiers through the HTTP
// layer without threading extra parameters everywhere.
package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	ownerKey
)

// WithRequestID attaches the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id, or "" when unset.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithOwner attaches the conversation owner id.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// Owner returns the conversation owner id, or "" when unset.
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}
