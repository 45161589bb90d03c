package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/simp-lee/jwt"

	"github.com/meethalfway/meethalfway/internal/domain"
)

const testSecret = "test-secret-that-is-long-enough-123456"

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func newTestTokens(t *testing.T, now time.Time) *Tokens {
	t.Helper()
	tokens, err := NewTokens(testSecret, time.Hour, jwt.WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	t.Cleanup(tokens.Close)
	return tokens
}

func TestTokens_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := newTestTokens(t, now)

	tok, expiresAt, err := tokens.Issue(&domain.User{Record: domain.Record{ID: 42}, Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, now.Add(time.Hour))
	}

	id, err := tokens.VerifyToken(tok)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}

	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(tok, claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if claims["sub"] != "42" || claims["iss"] != tokenIssuer || claims["jti"] == "" {
		t.Errorf("unexpected claims: %v", claims)
	}
}

func TestTokens_Revoke(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := newTestTokens(t, now)
	user := &domain.User{Record: domain.Record{ID: 7}}

	revoked, _, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other, _, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := tokens.Revoke(revoked); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := tokens.VerifyToken(revoked); !errors.Is(err, jwt.ErrRevokedToken) {
		t.Errorf("VerifyToken(revoked) error = %v, want ErrRevokedToken", err)
	}
	if id, err := tokens.VerifyToken(other); err != nil || id != 7 {
		t.Errorf("VerifyToken(other) = %d, %v; want 7, nil", id, err)
	}
	if err := tokens.Revoke("not.a.token"); err == nil {
		t.Error("Revoke(garbage) error = nil")
	}
}

func TestTokens_Closed(t *testing.T) {
	tokens := newTestTokens(t, time.Now())
	tok, _, err := tokens.Issue(&domain.User{Record: domain.Record{ID: 1}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tokens.Close()
	if _, err := tokens.VerifyToken(tok); !errors.Is(err, jwt.ErrServiceClosed) {
		t.Errorf("VerifyToken after Close error = %v, want ErrServiceClosed", err)
	}
}

func TestTokens_Rejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestTokens(t, now)
	valid, _, err := issuer.Issue(&domain.User{Record: domain.Record{ID: 7}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims := func(mutate func(jwtlib.MapClaims)) jwtlib.MapClaims {
		c := jwtlib.MapClaims{
			"user_id": "7",
			"sub":     "7",
			"iss":     tokenIssuer,
			"iat":     now.Unix(),
			"exp":     now.Add(time.Hour).Unix(),
		}
		if mutate != nil {
			mutate(c)
		}
		return c
	}
	sign := func(method jwtlib.SigningMethod, c jwtlib.MapClaims, key string) string {
		s, err := jwtlib.NewWithClaims(method, c).SignedString([]byte(key))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	// A hand-built token with every claim in place is accepted, so each case
	// below fails only for the reason it names.
	if id, err := issuer.VerifyToken(sign(jwtlib.SigningMethodHS256, claims(nil), testSecret)); err != nil || id != 7 {
		t.Fatalf("well-formed token: id %d, err %v", id, err)
	}

	tests := []struct {
		name   string
		token  string
		verify *Tokens
	}{
		{"expired", valid, newTestTokens(t, now.Add(2*time.Hour))},
		{"wrong secret", sign(jwtlib.SigningMethodHS256, claims(nil), "another-secret-that-is-long-enough!!"), issuer},
		{"other algorithm", sign(jwtlib.SigningMethodHS512, claims(nil), testSecret), issuer},
		{"no expiry", sign(jwtlib.SigningMethodHS256, claims(func(c jwtlib.MapClaims) { delete(c, "exp") }), testSecret), issuer},
		{"no issued at", sign(jwtlib.SigningMethodHS256, claims(func(c jwtlib.MapClaims) { delete(c, "iat") }), testSecret), issuer},
		{"other issuer", sign(jwtlib.SigningMethodHS256, claims(func(c jwtlib.MapClaims) { c["iss"] = "someone-else" }), testSecret), issuer},
		{"bad user id", sign(jwtlib.SigningMethodHS256, claims(func(c jwtlib.MapClaims) { c["user_id"] = "ana" }), testSecret), issuer},
		{"zero user id", sign(jwtlib.SigningMethodHS256, claims(func(c jwtlib.MapClaims) { c["user_id"] = "0" }), testSecret), issuer},
		{"garbage", "not.a.token", issuer},
		{"tampered", strings.TrimSuffix(valid, valid[len(valid)-2:]) + "xx", issuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if id, err := tt.verify.VerifyToken(tt.token); err == nil {
				t.Fatalf("expected error, got id %d", id)
			}
		})
	}
}

func TestNewTokens_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		expiry time.Duration
	}{
		{"empty secret", "", time.Hour},
		{"short secret", "short", time.Hour},
		{"zero expiry", testSecret, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tokens, err := NewTokens(tt.secret, tt.expiry); err == nil {
				tokens.Close()
				t.Fatal("expected error")
			}
		})
	}
}
