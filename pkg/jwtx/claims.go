package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default lifetime for a login session and,
// by extension, for the bearer credential minted from it.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Claims is the fixed shape of the bearer credential. Everything a request
// needs for an authorization decision travels here; the sid claim points at
// the server-side session row that must still be live for the credential to
// count.
type Claims struct {
	jwt.RegisteredClaims

	// SID is the opaque session token backing this credential.
	SID string `json:"sid,omitempty"`

	// Roles attached to the user at mint time, in attach order.
	Roles []string `json:"roles,omitempty"`

	// Permissions resolved from the roles at mint time, in attach order.
	Permissions []string `json:"permissions,omitempty"`

	// Email and Name identify the user for display purposes only.
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// NewSessionClaims builds claims for a login session. The expiry is an
// absolute timestamp so it stays synchronized with the session row it
// mirrors: a renewed session implies a renewed credential.
func NewSessionClaims(
	subject, sid string,
	roles, permissions []string,
	email, name string,
	issuer string,
	expiresAt time.Time,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SID:         sid,
		Roles:       roles,
		Permissions: permissions,
		Email:       email,
		Name:        name,
	}
}
