package middleware

import (
	"context"

	"github.com/angelmondragon/aquadrop/internal/cart"
	"github.com/angelmondragon/aquadrop/internal/identity"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxIdentity  contextKey = "identity"
	ctxCart      contextKey = "cart"
)

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext returns the signed-in identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *identity.Identity {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxIdentity).(*identity.Identity); ok {
		return v
	}
	return nil
}

func CartFromContext(ctx context.Context) *cart.Store {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCart).(*cart.Store); ok {
		return v
	}
	return nil
}

// WithSessionID injects the device session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithIdentity injects the resolved identity into the context.
func WithIdentity(ctx context.Context, ident *identity.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, ident)
}

// WithCart injects the session's cart store for downstream handlers.
func WithCart(ctx context.Context, store *cart.Store) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCart, store)
}
