package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/aquadrop/api/middleware"
	"github.com/angelmondragon/aquadrop/api/responses"
	pkgAuth "github.com/angelmondragon/aquadrop/pkg/auth"
	"github.com/angelmondragon/aquadrop/pkg/config"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

type sessionResponse struct {
	Token     string     `json:"token"`
	SessionID string     `json:"session_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SessionStart mints a device session token. A still-valid token presented in
// the session header is renewed under the same session id so the device cart
// survives.
func SessionStart(cfg config.SessionConfig, logg *logger.Logger, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if raw := strings.TrimSpace(r.Header.Get(middleware.SessionHeader)); raw != "" {
			if claims, err := pkgAuth.ParseSessionToken(cfg, raw); err == nil {
				sessionID = claims.SessionID
			}
		}

		token, claims, err := pkgAuth.MintSessionToken(cfg, now(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}

		resp := sessionResponse{Token: token, SessionID: claims.SessionID}
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time.UTC()
			resp.ExpiresAt = &exp
		}

		w.Header().Set(middleware.SessionHeader, token)
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}
