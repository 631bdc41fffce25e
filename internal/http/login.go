package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nitrolabs/nitro/internal/metrics"
	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/pkg/httpx"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

type LoginHandler struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	TokenService   *service.TokenService
	Metrics        metrics.MetricsCollector
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	TokenType   string    `json:"token_type"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        loginUser `json:"user"`
}

type loginUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ServeHTTP handles credential login. Verification, session establishment
// and credential minting happen in sequence; any credential problem is
// reported with one generic message so callers cannot enumerate accounts.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	user, err := h.AuthService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrIncompleteCredentials) || errors.Is(err, service.ErrInvalidCredentials) {
			h.Metrics.RecordLoginFailure()
			httpx.WriteError(w, http.StatusUnauthorized, "authentication_failed", "invalid email or password")
			return
		}
		l.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	session, err := h.SessionService.EstablishSession(ctx, user.ID)
	if err != nil {
		l.Error("failed to establish session", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	token, err := h.TokenService.Mint(user, session)
	if err != nil {
		l.Error("failed to mint credential", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	h.Metrics.RecordLoginSuccess()
	l.Info("login succeeded", "user_id", user.ID)

	setCredentialCookie(w, token, session.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		TokenType:   "Bearer",
		AccessToken: token,
		ExpiresAt:   session.ExpiresAt,
		User: loginUser{
			ID:          user.ID,
			Email:       user.Email,
			Name:        user.Name,
			Roles:       user.Roles,
			Permissions: user.Permissions,
		},
	})
}

func setCredentialCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCredentialCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
