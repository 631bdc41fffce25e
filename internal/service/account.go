package service

import (
	"context"
	"errors"
	"log/slog"
	"unicode"

	"github.com/nitrolabs/nitro/internal/domain"
	"github.com/nitrolabs/nitro/internal/store"
	"github.com/nitrolabs/nitro/pkg/cryptox"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

var ErrWeakPassword = errors.New("weak_password")

// PasswordPolicy decides whether a proposed password is acceptable. It is
// injected so deployments can swap in their own complexity rules.
type PasswordPolicy func(password string) error

// DefaultPasswordPolicy requires at least 7 characters with an uppercase
// letter, a lowercase letter and a special character.
func DefaultPasswordPolicy(password string) error {
	var upper, lower, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			special = true
		}
	}
	if len(password) < 7 || !upper || !lower || !special {
		return ErrWeakPassword
	}
	return nil
}

// AccountService covers self-service account operations: profile lookup and
// password changes.
type AccountService struct {
	Store  store.Store
	Policy PasswordPolicy
}

// Profile returns the account record for an authenticated user.
func (s *AccountService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func (s *AccountService) policy() PasswordPolicy {
	if s.Policy == nil {
		return DefaultPasswordPolicy
	}
	return s.Policy
}

// ChangePassword swaps a user's password after re-verifying the current one.
// The caller is already authenticated; the recheck defends a hijacked
// credential against silent account takeover.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	if currentPassword == "" || newPassword == "" {
		return ErrIncompleteCredentials
	}
	if err := s.policy()(newPassword); err != nil {
		return err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if user.PasswordHash == "" {
		return ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("password change rejected: current password mismatch", slog.String("user_id", userID))
			return ErrInvalidCredentials
		}
		return err
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return err
	}

	l.Info("password changed", slog.String("user_id", userID))
	return nil
}
