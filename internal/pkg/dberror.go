package pkg

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/meethalfway/meethalfway/internal/domain"
)

// DBError turns a gorm error into a *domain.AppError. notFound and conflict
// are the public messages for a missing row and a unique-key violation.
// AppErrors returned from inside a transaction pass through unchanged.
func DBError(err error, notFound, conflict string) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewAppError(domain.CodeNotFound, notFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey) || uniqueViolation(err):
		return domain.NewAppError(domain.CodeAlreadyExists, conflict, err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// uniqueViolation matches the unique-constraint messages of SQLite and
// Postgres. glebarez/sqlite does not translate them to gorm.ErrDuplicatedKey.
func uniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
