package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nitrolabs/nitro/internal/domain"
	"github.com/nitrolabs/nitro/internal/store"
	"github.com/nitrolabs/nitro/pkg/cryptox"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

var (
	ErrIncompleteCredentials = errors.New("incomplete_credentials")
	ErrInvalidCredentials    = errors.New("invalid_credentials")
)

type AuthService struct {
	Store store.Store
}

// Authenticate verifies an email/password pair and returns the identity with
// its flattened roles and permissions. Unknown email, missing password hash
// and wrong password all collapse into ErrInvalidCredentials so callers
// cannot tell which one happened.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (domain.AuthenticatedUser, error) {
	l := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return domain.AuthenticatedUser{}, ErrIncompleteCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("authentication failed: unknown email")
			return domain.AuthenticatedUser{}, ErrInvalidCredentials
		}
		return domain.AuthenticatedUser{}, err
	}

	// Users provisioned without a local password can never authenticate
	// with credentials.
	if user.PasswordHash == "" {
		l.Info("authentication failed: no password set", slog.String("user_id", user.ID))
		return domain.AuthenticatedUser{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("authentication failed: password mismatch", slog.String("user_id", user.ID))
			return domain.AuthenticatedUser{}, ErrInvalidCredentials
		}
		return domain.AuthenticatedUser{}, err
	}

	roles, err := s.Store.Users().ListRoleNames(ctx, user.ID)
	if err != nil {
		return domain.AuthenticatedUser{}, err
	}

	perms, err := s.Store.Users().ListPermissionNames(ctx, user.ID)
	if err != nil {
		return domain.AuthenticatedUser{}, err
	}

	return domain.AuthenticatedUser{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		AvatarURL:   user.AvatarURL,
		Roles:       dedupe(roles),
		Permissions: dedupe(perms),
	}, nil
}

// dedupe removes repeated entries while keeping first-seen order.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
