package user

import (
	"context"

	"gorm.io/gorm"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/pkg"
)

// store keeps accounts in the users table. Emails are written and matched in
// their normalized form.
type store struct {
	db *gorm.DB
}

// NewUserRepository returns a domain.UserRepository on db.
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &store{db: db}
}

func (s *store) Create(ctx context.Context, user *domain.User) error {
	user.Email = domain.NormalizeEmail(user.Email)
	return mapError(s.db.WithContext(ctx).Create(user).Error)
}

func (s *store) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *store) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

// ListByEmails returns the users registered under any of emails, ordered by
// id. Unknown addresses are skipped.
func (s *store) ListByEmails(ctx context.Context, emails []string) ([]domain.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(emails))
	for _, e := range emails {
		keys = append(keys, domain.NormalizeEmail(e))
	}

	var users []domain.User
	err := s.db.WithContext(ctx).Where("email IN ?", keys).Order("id").Find(&users).Error
	if err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

func (s *store) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	user := new(domain.User)
	if err := s.db.WithContext(ctx).Where(query, arg).First(user).Error; err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func mapError(err error) error {
	return pkg.DBError(err, "user not found", "email already registered")
}
