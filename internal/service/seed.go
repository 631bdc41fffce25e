package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nitrolabs/nitro/internal/authz"
	"github.com/nitrolabs/nitro/internal/domain"
	"github.com/nitrolabs/nitro/internal/store"
	"github.com/nitrolabs/nitro/pkg/cryptox"
	"github.com/nitrolabs/nitro/pkg/idx"
	"github.com/nitrolabs/nitro/pkg/slogx"
)

// SeedService provisions the static role/permission tables and, on a fresh
// database, the first admin account. Safe to run on every startup.
type SeedService struct {
	Store store.Store

	AdminEmail    string
	AdminName     string
	AdminPassword string // generated and logged when empty
}

func (s *SeedService) Seed(ctx context.Context) error {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, roleName := range authz.Roles() {
			role, err := s.ensureRole(ctx, tx, roleName, now)
			if err != nil {
				return err
			}

			for _, permName := range authz.PermissionsForRole(roleName) {
				perm, err := s.ensurePermission(ctx, tx, permName)
				if err != nil {
					return err
				}
				if err := tx.Roles().GrantPermission(ctx, role.ID, perm.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.seedAdmin(ctx, l, now)
}

func (s *SeedService) ensureRole(ctx context.Context, tx store.Tx, name string, now time.Time) (domain.Role, error) {
	role, err := tx.Roles().GetRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Role{}, err
	}

	role = domain.Role{
		ID:        idx.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Roles().CreateRole(ctx, role); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}

func (s *SeedService) ensurePermission(ctx context.Context, tx store.Tx, name string) (domain.Permission, error) {
	perm, err := tx.Permissions().GetPermissionByName(ctx, name)
	if err == nil {
		return perm, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Permission{}, err
	}

	perm = domain.Permission{ID: idx.New().String(), Name: name}
	if err := tx.Permissions().CreatePermission(ctx, perm); err != nil {
		return domain.Permission{}, err
	}
	return perm, nil
}

// seedAdmin creates the first admin account when the users table is empty
// and an admin email is configured. If no password was configured one is
// generated and logged once, the way a fresh install hands over its keys.
func (s *SeedService) seedAdmin(ctx context.Context, l *slog.Logger, now time.Time) error {
	if s.AdminEmail == "" {
		return nil
	}

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	password := s.AdminPassword
	generated := false
	if password == "" {
		password, err = cryptox.GeneratePassword()
		if err != nil {
			return err
		}
		generated = true
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	userID := idx.New().String()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		adminRole, err := tx.Roles().GetRoleByName(ctx, authz.RoleAdmin)
		if err != nil {
			return err
		}

		if err := tx.Users().CreateUser(ctx, domain.User{
			ID:           userID,
			Email:        s.AdminEmail,
			Name:         s.AdminName,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return err
		}
		return tx.Users().AssignRole(ctx, userID, adminRole.ID)
	})
	if err != nil {
		return err
	}

	if generated {
		l.Warn("seeded admin account with generated password",
			slog.String("email", s.AdminEmail),
			slog.String("password", password),
		)
	} else {
		l.Info("seeded admin account", slog.String("email", s.AdminEmail))
	}
	return nil
}
