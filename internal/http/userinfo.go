package http

import (
	"net/http"

	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/pkg/httpx"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

type UserInfoHandler struct {
	AccountService *service.AccountService
}

type userInfoResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ServeHTTP returns the authenticated user's profile. Roles and permissions
// come from the verified claims rather than a fresh lookup, so a role change
// becomes visible at the next login, not mid-session.
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}

	user, err := h.AccountService.Profile(ctx, claims.Subject)
	if err != nil {
		log.Warn("failed to load user", "user_id", claims.Subject, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userInfoResponse{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		AvatarURL:   user.AvatarURL,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	})
}
