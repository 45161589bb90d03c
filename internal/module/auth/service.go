package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/meethalfway/meethalfway/internal/domain"
)

// SessionTokens signs session tokens for authenticated users and revokes them
// on logout. *Tokens implements it.
type SessionTokens interface {
	Issue(u *domain.User) (token string, expiresAt time.Time, err error)
	Revoke(token string) error
}

// Session is the signed-in state handed to a browser or API client.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service defines the authentication operations.
type Service interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

// authService implements Service.
type authService struct {
	tokens   SessionTokens
	userRepo domain.UserRepository
	cost     int
}

// NewService creates a new auth Service.
func NewService(tokens SessionTokens, userRepo domain.UserRepository) Service {
	return &authService{
		tokens:   tokens,
		userRepo: userRepo,
		cost:     bcrypt.DefaultCost,
	}
}

// Login authenticates a user by email and password and returns a session token.
// Unknown emails and wrong passwords produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.DebugContext(ctx, "login rejected", slog.Uint64("user_id", uint64(user.ID)))
		return nil, domain.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to generate token", err)
	}

	slog.InfoContext(ctx, "user logged in", slog.Uint64("user_id", uint64(user.ID)))
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes token so a copy of it can no longer sign in. An empty token
// is a no-op.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.tokens.Revoke(token); err != nil {
		return domain.NewAppError(domain.CodeUnauthorized, "invalid session", err)
	}
	slog.InfoContext(ctx, "session revoked")
	return nil
}

// Register creates an account. The name is trimmed; the email is trimmed here
// and lowercased by the repository.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	user := &domain.User{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := checkRegistration(user.Name, user.Email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}
	user.PasswordHash = string(hash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Registration limits. bcrypt ignores password bytes past 72.
const (
	maxNameRunes     = 100
	minPasswordBytes = 8
	maxPasswordBytes = 72
)

// checkRegistration returns the first rule the input breaks as a validation
// error, or nil.
func checkRegistration(name, email, password string) error {
	nameLen := utf8.RuneCountInString(name)
	for _, rule := range []struct {
		broken bool
		msg    string
	}{
		{nameLen == 0, "name is required"},
		{nameLen > maxNameRunes, "name must not exceed 100 characters"},
		{email == "", "email is required"},
		{email != "" && !plainAddress(email), "email must be a valid email address"},
		{len(password) < minPasswordBytes, "password must be at least 8 characters"},
		{len(password) > maxPasswordBytes, "password must not exceed 72 bytes"},
	} {
		if rule.broken {
			return domain.NewAppError(domain.CodeValidation, rule.msg, nil)
		}
	}
	return nil
}

// plainAddress accepts a bare RFC 5322 address such as ana@example.com, but
// not one with a display name or angle brackets.
func plainAddress(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Name == "" && addr.Address == email
}
