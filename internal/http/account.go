package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/pkg/httpx"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

type ChangePasswordHandler struct {
	AccountService *service.AccountService
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ServeHTTP changes the caller's password. Being authenticated is not
// enough: the current password is re-verified before anything changes.
func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	err := h.AccountService.ChangePassword(ctx, claims.Subject, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrIncompleteCredentials):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "current and new password are required")
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, "weak_password",
			"password must be at least 7 characters with upper case, lower case and a special character")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect")
	default:
		l.Error("password change failed", "user_id", claims.Subject, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}
