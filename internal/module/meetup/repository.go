package meetup

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meethalfway/meethalfway/internal/domain"
	"github.com/meethalfway/meethalfway/internal/pkg"
)

// locationRepository implements domain.LocationRepository using GORM.
type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new LocationRepository backed by the given GORM database.
func NewLocationRepository(db *gorm.DB) domain.LocationRepository {
	return &locationRepository{db: db}
}

// Upsert stores loc as the user's only location, replacing any earlier one.
// It is a single INSERT ... ON CONFLICT on the unique user_id, so concurrent
// saves by the same user never insert twice. On return loc carries the
// persisted ID and timestamps.
func (r *locationRepository) Upsert(ctx context.Context, loc *domain.Location) error {
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		loc.ID = 0
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "latitude", "longitude", "updated_at"}),
		}).Create(loc).Error; err != nil {
			return err
		}

		var stored domain.Location
		if err := tx.Where("user_id = ?", loc.UserID).First(&stored).Error; err != nil {
			return err
		}
		loc.Record = stored.Record
		return nil
	})
	return mapError(err)
}

// GetByUserID retrieves the location saved by userID.
func (r *locationRepository) GetByUserID(ctx context.Context, userID uint) (*domain.Location, error) {
	var loc domain.Location
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&loc).Error; err != nil {
		return nil, mapError(err)
	}
	return &loc, nil
}

// ListByUserIDs returns the saved locations of any of userIDs. Users without
// a location are skipped.
func (r *locationRepository) ListByUserIDs(ctx context.Context, userIDs []uint) ([]domain.Location, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var locs []domain.Location
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id").
		Find(&locs).Error; err != nil {
		return nil, mapError(err)
	}
	return locs, nil
}

func mapError(err error) error {
	return pkg.DBError(err, "no saved location", "location already saved")
}
