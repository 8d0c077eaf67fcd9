package identity

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

// TokenVerifier checks an ID token. *firebaseauth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Profile is the account document stored in one of the profile collections.
type Profile struct {
	ID       string `firestore:"id"`
	Email    string `firestore:"email"`
	FullName string `firestore:"full_name"`
	Phone    string `firestore:"phone"`
	Role     string `firestore:"role"`
}

// ProfileStore fetches a profile document; ok=false when the collection has none.
type ProfileStore interface {
	Profile(ctx context.Context, collection, uid string) (Profile, bool, error)
}

// FirestoreProfiles reads profiles straight from Firestore.
type FirestoreProfiles struct {
	Client *firestore.Client
}

func (f FirestoreProfiles) Profile(ctx context.Context, collection, uid string) (Profile, bool, error) {
	if f.Client == nil {
		return Profile{}, false, errors.New("firestore client is nil")
	}
	snap, err := f.Client.Collection(collection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Profile{}, false, nil
		}
		return Profile{}, false, err
	}
	var p Profile
	if err := snap.DataTo(&p); err != nil {
		return Profile{}, false, err
	}
	return p, true, nil
}

// Resolver turns an ID token into an Identity with its marketplace role.
type Resolver struct {
	verifier    TokenVerifier
	profiles    ProfileStore
	collections []string
	logg        *logger.Logger
}

// NewResolver searches collections in order; the first profile found wins.
func NewResolver(verifier TokenVerifier, profiles ProfileStore, collections []string, logg *logger.Logger) (*Resolver, error) {
	if verifier == nil {
		return nil, errors.New("token verifier required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{verifier: verifier, profiles: profiles, collections: collections, logg: logg}, nil
}

// Resolve verifies idToken. Invalid tokens are Unauthorized; a profile lookup
// failure falls back to the user role.
func (r *Resolver) Resolve(ctx context.Context, idToken string) (*Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing id token")
	}
	tok, err := r.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid id token")
	}

	ident := &Identity{UID: tok.UID, Role: RoleUser}
	if email, ok := tok.Claims["email"].(string); ok {
		ident.Email = email
	}
	r.applyProfile(ctx, ident)
	return ident, nil
}

func (r *Resolver) applyProfile(ctx context.Context, ident *Identity) {
	if r.profiles == nil {
		return
	}
	for _, col := range r.collections {
		p, ok, err := r.profiles.Profile(ctx, col, ident.UID)
		if err != nil {
			r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"user_id": ident.UID, "collection": col}), "identity.profile_lookup_failed")
			return
		}
		if !ok {
			continue
		}
		if role := Role(strings.ToLower(strings.TrimSpace(p.Role))); role.IsValid() {
			ident.Role = role
		}
		if ident.Email == "" {
			ident.Email = p.Email
		}
		if ident.Role == RoleVendor {
			ident.VendorID = ident.UID
		}
		return
	}
}
