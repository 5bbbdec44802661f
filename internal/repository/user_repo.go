package repository

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/db"
	"gorm.io/gorm"
)

// UserRepository provides data access for the User aggregate and the tier
// catalog. Only the engine-owned fields (score, tier, streak) are written.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID loads a user row.
func (r *UserRepository) GetByID(ctx context.Context, userID uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IncrementScore adds delta to the user's cumulative reputation score in a
// single statement, clamped at zero.
//
// Behavior:
//   - One atomic UPDATE; never read-modify-write, so concurrent awards to the
//     same user cannot lose updates.
//   - Negative deltas (retractions) floor at 0 instead of going negative.
//   - GREATEST on MySQL, two-argument MAX on SQLite.
func (r *UserRepository) IncrementScore(ctx context.Context, userID uint64, delta int64) error {
	expr := "GREATEST(reputation_score + ?, 0)"
	if r.db.Dialector.Name() == "sqlite" {
		expr = "MAX(reputation_score + ?, 0)"
	}
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Update("reputation_score", gorm.Expr(expr, delta)).Error
}

// UpdateTier stores a newly derived tier for the user.
func (r *UserRepository) UpdateTier(ctx context.Context, userID, tierID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Update("tier_id", tierID).Error
}

// UpdateStreak persists the login-streak bookkeeping fields.
func (r *UserRepository) UpdateStreak(ctx context.Context, userID uint64, streak, bestStreak int, lastLoginDate string) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"login_streak":    streak,
			"best_streak":     bestStreak,
			"last_login_date": lastLoginDate,
		}).Error
}

// ListTiers returns the tier catalog ordered by ascending MinScore, the order
// tier derivation scans in.
func (r *UserRepository) ListTiers(ctx context.Context) ([]db.Tier, error) {
	var tiers []db.Tier
	err := r.db.WithContext(ctx).Order("min_score ASC").Find(&tiers).Error
	return tiers, err
}
