package user

import (
	"context"

	"github.com/meethalfway/meethalfway/internal/domain"
)

// accounts resolves the signed-in user for the profile API and the home page.
type accounts struct {
	users domain.UserRepository
}

// NewUserService returns a domain.UserService reading from users.
func NewUserService(users domain.UserRepository) domain.UserService {
	return &accounts{users: users}
}

// GetUser returns the user with id. A zero id is a validation error, since no
// stored row has it.
func (s *accounts) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	if id == 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "user id is required", nil)
	}
	return s.users.GetByID(ctx, id)
}
