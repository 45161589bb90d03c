package pkg

import (
	"context"

	"gorm.io/gorm"
)

// WithTx runs fn in a transaction bound to ctx. An error or panic from fn
// rolls it back; the panic is re-raised. Called with a db that is already a
// transaction, fn runs in a savepoint of it.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
