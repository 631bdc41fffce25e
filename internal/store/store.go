package store

import (
	"context"
	"errors"
	"time"

	"github.com/nitrolabs/nitro/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Roles() Roles
	Permissions() Permissions
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back on error and
	// committing on nil. This is the recommended way to run multi-step
	// operations that must be atomic (e.g. reuse-or-create of a session).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail does a case-sensitive exact match on the stored email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// AssignRole attaches a role to a user; attach order is preserved.
	AssignRole(ctx context.Context, userID, roleID string) error

	// ListRoleNames returns the user's role names in attach order.
	ListRoleNames(ctx context.Context, userID string) ([]string, error)

	// ListPermissionNames returns the permission names resolved through the
	// user's roles, in attach order, duplicates included (callers dedupe).
	ListPermissionNames(ctx context.Context, userID string) ([]string, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetRoleByName fetches a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// CreateRole inserts a new role (id is ULID).
	CreateRole(ctx context.Context, r domain.Role) error

	// GrantPermission attaches a permission to a role.
	GrantPermission(ctx context.Context, roleID, permissionID string) error

	// ListAll returns all roles with their resolved permissions.
	ListAll(ctx context.Context) ([]domain.Role, error)
}

type Permissions interface {
	// GetPermissionByName fetches a permission by its unique name.
	GetPermissionByName(ctx context.Context, name string) (domain.Permission, error)

	// CreatePermission inserts a new permission (id is ULID).
	CreatePermission(ctx context.Context, p domain.Permission) error
}

type Sessions interface {
	// CreateSession stores a new session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByToken returns a session regardless of expiry; callers
	// apply the liveness predicate.
	GetSessionByToken(ctx context.Context, token string) (domain.Session, error)

	// GetActiveSessionForUser returns the user's session with
	// expires_at > now, if one exists.
	GetActiveSessionForUser(ctx context.Context, userID string, now time.Time) (domain.Session, error)

	// DeleteSessionsByToken removes every row with the given token.
	// Deleting a token that never existed is not an error.
	DeleteSessionsByToken(ctx context.Context, token string) error

	// DeleteExpiredSessions removes rows whose expiry has passed (housekeeping).
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}
