package repository

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoginRepository stores the one-row-per-(user, calendar day) login records
// the streak tracker is built on.
type LoginRepository struct {
	db *gorm.DB
}

// NewLoginRepository creates a new repository bound to the given DB connection.
func NewLoginRepository(database *gorm.DB) *LoginRepository {
	return &LoginRepository{db: database}
}

// InsertLogin records today's login via insert-or-ignore on
// ux_user_login_date. inserted=false means the user already logged in on
// that date — the caller treats the call as a no-op.
func (r *LoginRepository) InsertLogin(ctx context.Context, record *db.LoginRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if res.Error != nil {
		if svcErr.IsDuplicateKey(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasLogin reports whether a login record exists for (user, date).
func (r *LoginRepository) HasLogin(ctx context.Context, userID uint64, loginDate string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.LoginRecord{}).
		Where("user_id = ? AND login_date = ?", userID, loginDate).
		Count(&count).Error
	return count > 0, err
}
