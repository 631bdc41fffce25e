package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HS256 secret size. Anything shorter than
// the HMAC block makes brute forcing the signing key cheaper than forging
// a session token.
const MinSecretLength = 32

// ErrSecretTooShort reports an HS256 secret below MinSecretLength bytes.
var ErrSecretTooShort = errors.New("jwtx: hs256 secret must be at least 32 bytes")

// HS256Signer signs claims with a shared HMAC-SHA256 secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return "HS256" }

// Sign produces the compact serialization of the claims.
func (s *HS256Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// HS256Verifier validates HS256 tokens against the shared secret and an
// expected issuer.
type HS256Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifierHS256 creates a verifier for tokens minted by the matching
// HS256Signer. An empty issuer disables the issuer check.
func NewVerifierHS256(secret []byte, issuer string) (*HS256Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &HS256Verifier{
		secret: secret,
		issuer: issuer,
		leeway: 30 * time.Second, // clock skew tolerance
	}, nil
}

// Verify parses and validates the token, failing closed on signature,
// structure, expiry, and issuer problems.
func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if claims.Subject == "" || claims.SID == "" {
		return Claims{}, ErrInvalidClaim
	}

	return claims, nil
}

// mapParseError flattens golang-jwt's joined errors into our sentinels so
// callers can dispatch with errors.Is without importing the library.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	default:
		return ErrInvalidClaim
	}
}
