package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/pkg/httpx"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

type SessionHandler struct {
	SessionService *service.SessionService
}

type sessionUpdateRequest struct {
	// TerminateSession is the explicit "kill my session" update signal,
	// distinct from logout in that the caller states intent in the body.
	TerminateSession bool `json:"terminate_session"`
}

type sessionStatusResponse struct {
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServeHTTP reports or updates the caller's session. The gate has already
// verified the credential and proven the session live.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}

	var req sessionUpdateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}
	}

	if req.TerminateSession {
		if err := h.SessionService.TerminateSession(ctx, claims.SID); err != nil {
			l.Error("failed to terminate session", "user_id", claims.Subject, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
			return
		}
		l.Info("session terminated by update signal", "user_id", claims.Subject)
		clearCredentialCookie(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	session, err := h.SessionService.GetSession(ctx, claims.SID)
	if err != nil {
		l.Error("failed to load session", "user_id", claims.Subject, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionStatusResponse{
		Active:    session.Live(time.Now().UTC()),
		ExpiresAt: session.ExpiresAt,
	})
}
