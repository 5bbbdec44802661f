package repository

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeRepository provides access to the badge catalog and earned badges.
type BadgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository creates a new repository bound to the given DB connection.
func NewBadgeRepository(database *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: database}
}

// ListBadges returns the full badge catalog.
func (r *BadgeRepository) ListBadges(ctx context.Context) ([]db.Badge, error) {
	var badges []db.Badge
	err := r.db.WithContext(ctx).Order("id ASC").Find(&badges).Error
	return badges, err
}

// OwnedBadgeIDs returns the set of badge IDs the user already holds.
func (r *BadgeRepository) OwnedBadgeIDs(ctx context.Context, userID uint64) (map[uint64]bool, error) {
	var rows []db.UserBadge
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	owned := make(map[uint64]bool, len(rows))
	for _, row := range rows {
		owned[row.BadgeID] = true
	}
	return owned, nil
}

// AwardBadge records a badge as earned, once. Insert-or-ignore on
// ux_user_badge makes concurrent check-then-insert safe per user; awarding is
// append-only, badges are never revoked.
func (r *BadgeRepository) AwardBadge(ctx context.Context, userID, badgeID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.UserBadge{UserID: userID, BadgeID: badgeID})
	if res.Error != nil {
		if svcErr.IsDuplicateKey(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
