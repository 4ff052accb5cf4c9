// Package kit holds small cross-cutting helpers shared by the relay's
// transports: the Endpoint abstraction, request-scoped context keys, and
// MCP tool registration.
package kit

import "context"

// Endpoint is a transport-agnostic request handler. Transports decode their
// wire format into a typed request, call the endpoint, and encode the
// response back.
type Endpoint func(ctx context.Context, req any) (any, error)

type contextKey string

const (
	// UserIDKey carries the chat user ID of the request originator.
	UserIDKey contextKey = "kit_user_id"
	// TransportKey names the transport a request arrived on ("telegram",
	// "http", "mcp").
	TransportKey contextKey = "kit_transport"
)

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}
