package domain

import "time"

// User is an identity record. PasswordHash is empty for users provisioned
// without a local password; such users cannot authenticate with credentials.
type User struct {
	ID           string
	Email        string
	Name         string
	AvatarURL    string
	PasswordHash string // argon2 encoded, "" when unset
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthenticatedUser is the result of a successful credential check: the
// identity plus its flattened access profile, ready for claim minting.
type AuthenticatedUser struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string

	// Roles is the deduplicated role names in attach order.
	Roles []string

	// Permissions is the deduplicated permission names resolved through the
	// roles, in attach order.
	Permissions []string
}
