package domain

import "time"

// Record holds the identity and bookkeeping columns shared by stored rows.
// Rows have no DeletedAt, so gorm never filters them as soft-deleted.
type Record struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
