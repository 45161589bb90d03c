package domain

import (
	"context"
	"strings"
)

// User is a registered account. Email is the login identifier and the handle
// other people use to add someone to their merged map.
type User struct {
	Record
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
}

// UserRepository defines the data access interface for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByEmails(ctx context.Context, emails []string) ([]User, error)
}

// UserService defines the read side of user accounts used by pages and the API.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*User, error)
}

// NormalizeEmail returns the canonical form of an email address used for
// storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
