package http

import (
	"net/http"

	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

type LogoutHandler struct {
	SessionService *service.SessionService
	TokenService   *service.TokenService
}

// ServeHTTP terminates the caller's session. Logout never fails from the
// client's point of view: an absent, expired or already-revoked credential
// still clears the cookie and returns success.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	if raw := CredentialFromRequest(r); raw != "" {
		// Decode only: a credential whose session is already dead must
		// still be accepted for logout.
		if claims, err := h.TokenService.Decode(raw); err == nil {
			if err := h.SessionService.TerminateSession(ctx, claims.SID); err != nil {
				l.Error("failed to terminate session", "user_id", claims.Subject, "err", err)
			} else {
				l.Info("logout", "user_id", claims.Subject)
			}
		}
	}

	clearCredentialCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
