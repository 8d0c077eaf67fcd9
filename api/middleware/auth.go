package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/aquadrop/api/responses"
	"github.com/angelmondragon/aquadrop/api/validators"
	"github.com/angelmondragon/aquadrop/internal/cart"
	"github.com/angelmondragon/aquadrop/internal/identity"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

// IdentityResolver turns a Firebase ID token into an identity. *identity.Resolver satisfies it.
type IdentityResolver interface {
	Resolve(ctx context.Context, idToken string) (*identity.Identity, error)
}

// CartBinder returns the session's cart bound to the request identity. *cart.Registry satisfies it.
type CartBinder interface {
	Identify(ctx context.Context, sessionID string, ident *identity.Identity) (*cart.Store, error)
}

// Auth resolves the optional bearer token and binds the session cart to the
// result. Requests without a token proceed anonymously; a present but invalid
// token is rejected. Must run after Session.
func Auth(resolver IdentityResolver, carts CartBinder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sessionID := SessionIDFromContext(ctx)
			if sessionID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
				return
			}

			var ident *identity.Identity
			if token := validators.BearerToken(r.Header.Get("Authorization")); token != "" {
				if resolver == nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity resolver unavailable"))
					return
				}
				resolved, err := resolver.Resolve(ctx, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				ident = resolved
			}

			if ident != nil {
				ctx = WithIdentity(ctx, ident)
				if logg != nil {
					ctx = logg.WithUserID(ctx, ident.UID)
					if ident.IsVendor() {
						ctx = logg.WithVendorID(ctx, ident.VendorID)
					}
				}
			}

			if carts != nil {
				store, err := carts.Identify(ctx, sessionID, ident)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open cart"))
					return
				}
				ctx = WithCart(ctx, store)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
