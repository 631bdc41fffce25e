package service

import (
	"context"
	"errors"
	"time"

	"github.com/nitrolabs/nitro/internal/domain"
	"github.com/nitrolabs/nitro/pkg/jwtx"
)

// ErrSessionRevoked is returned when a credential decodes cleanly but its
// backing session row is gone or expired. The holder must log in again.
var ErrSessionRevoked = errors.New("session_revoked")

type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Sessions *SessionService
	Issuer   string
}

// Mint issues a signed credential for the user bound to the given session.
// The credential expiry mirrors the session expiry, so a reused session
// yields a credential that dies at the same instant.
func (s *TokenService) Mint(user domain.AuthenticatedUser, session domain.Session) (string, error) {
	claims := jwtx.NewSessionClaims(
		user.ID,
		session.Token,
		user.Roles,
		user.Permissions,
		user.Email,
		user.Name,
		s.Issuer,
		session.ExpiresAt,
		time.Now().UTC(),
	)
	return s.Signer.Sign(claims)
}

// Decode verifies the signature and embedded expiry of a raw credential.
// Decode success is necessary but not sufficient: callers that care about
// logout must use Authorize, which also consults the session store.
func (s *TokenService) Decode(raw string) (jwtx.Claims, error) {
	return s.Verifier.Verify(raw)
}

// Authorize is the full trust check: verify the credential, then confirm the
// embedded session is still live. A revoked or expired session invalidates
// an otherwise perfectly signed credential.
func (s *TokenService) Authorize(ctx context.Context, raw string) (jwtx.Claims, error) {
	claims, err := s.Decode(raw)
	if err != nil {
		return jwtx.Claims{}, err
	}

	live, err := s.Sessions.IsLive(ctx, claims.SID)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if !live {
		return jwtx.Claims{}, ErrSessionRevoked
	}
	return claims, nil
}
