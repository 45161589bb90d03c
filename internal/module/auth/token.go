package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/simp-lee/jwt"

	"github.com/meethalfway/meethalfway/internal/domain"
)

const tokenIssuer = "meethalfway"

// Tokens issues, verifies and revokes session tokens. Revocations live in
// memory and are lost on restart.
type Tokens struct {
	svc    jwt.Service
	expiry time.Duration
}

// NewTokens returns a token service signing with secret. Tokens expire after
// expiry. opts are passed on to jwt.New after the defaults.
func NewTokens(secret string, expiry time.Duration, opts ...jwt.Option) (*Tokens, error) {
	if expiry <= 0 {
		return nil, errors.New("token expiry must be positive")
	}
	defaults := []jwt.Option{
		jwt.WithIssuer(tokenIssuer),
		jwt.WithMaxTokenLifetime(expiry),
		jwt.WithUserRevocationTTL(max(expiry, jwt.DefaultUserRevocationTTL)),
	}
	svc, err := jwt.New(secret, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Tokens{svc: svc, expiry: expiry}, nil
}

// Issue signs a token for u and reports when it expires.
func (t *Tokens) Issue(u *domain.User) (string, time.Time, error) {
	token, err := t.svc.GenerateToken(strconv.FormatUint(uint64(u.ID), 10), nil, t.expiry)
	if err != nil {
		return "", time.Time{}, err
	}
	parsed, err := t.svc.ParseToken(token)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse issued token: %w", err)
	}
	return token, parsed.ExpiresAt, nil
}

// VerifyToken checks signature, expiry and revocation of token and returns
// the user id it was issued for.
func (t *Tokens) VerifyToken(token string) (uint, error) {
	parsed, err := t.svc.ValidateToken(token)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(parsed.UserID, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", parsed.UserID)
	}
	return uint(id), nil
}

// Revoke rejects token from now on, even before it expires.
func (t *Tokens) Revoke(token string) error {
	return t.svc.RevokeToken(token)
}

// Close stops the revocation cleanup. Tokens are rejected afterwards.
func (t *Tokens) Close() {
	t.svc.Close()
}
