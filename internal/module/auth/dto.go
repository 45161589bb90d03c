package auth

import (
	"time"

	"github.com/meethalfway/meethalfway/internal/domain"
)

// LoginRequest is bound from the login form and from POST /api/v1/auth/login.
// The password length is checked against the stored hash, not here.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,max=72"`
}

// RegisterRequest is bound from the registration form and from
// POST /api/v1/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=100"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
}

// AccountResponse is the account created by a registration.
type AccountResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newAccountResponse(u *domain.User) AccountResponse {
	return AccountResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}
