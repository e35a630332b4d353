package context

import (
	"context"
	"github.com/gofiber/fiber/v2"
)

type key int

const (
	requestIDKey key = iota
	providerIDKey
)

const (
	// RequestIDLocal is the fiber local the request id middleware fills.
	RequestIDLocal = "X-Request-ID"
	// ProviderIDLocal is the fiber local the token middleware fills with the
	// authenticated provider's id.
	ProviderIDLocal = "provider_id"

	unknown = "unknown"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return unknown
	}
	return requestID
}

func WithProviderID(ctx context.Context, providerID string) context.Context {
	return context.WithValue(ctx, providerIDKey, providerID)
}

// GetProviderID returns the provider acting on ctx, or "" for
// unauthenticated work such as health checks.
func GetProviderID(ctx context.Context) string {
	providerID, _ := ctx.Value(providerIDKey).(string)
	return providerID
}

// FromFiberCtx detaches a request into a plain context carrying its request id
// and, once the token middleware has run, the provider it acts for.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := WithRequestID(context.Background(), ResolveRequestID(c.Locals(RequestIDLocal), c.Get(RequestIDLocal)))

	if providerID, ok := c.Locals(ProviderIDLocal).(string); ok && providerID != "" {
		ctx = WithProviderID(ctx, providerID)
	}
	return ctx
}

// ResolveRequestID prefers the id the middleware stored in locals and falls
// back to the caller's header.
func ResolveRequestID(local interface{}, header string) string {
	if requestID, ok := local.(string); ok && requestID != "" {
		return requestID
	}
	if header != "" {
		return header
	}
	return unknown
}
