package repository

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReputationRepository provides access to the append-only reputation log.
// The log doubles as the idempotency ledger for point awards.
type ReputationRepository struct {
	db *gorm.DB
}

// NewReputationRepository creates a new repository bound to the given DB connection.
func NewReputationRepository(database *gorm.DB) *ReputationRepository {
	return &ReputationRepository{db: database}
}

// InsertAward appends a log entry using insert-or-ignore on the award key
// ux_award_key(user_id, action_type, related_entity_id, related_entity_type).
//
// Behavior:
//   - Returns inserted=false when a row for the same key already exists. This
//     is the race-safe duplicate check: conflict handling in one statement,
//     never a separate read followed by a write.
//   - Entries without a related entity carry NULL key columns, which never
//     conflict, so they always insert.
//   - A raw unique-constraint error from a racing insert is also reported as
//     inserted=false rather than an error.
func (r *ReputationRepository) InsertAward(ctx context.Context, entry *db.ReputationLog) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if res.Error != nil {
		if svcErr.IsDuplicateKey(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasAward reports whether an entry exists for the given idempotency key.
func (r *ReputationRepository) HasAward(
	ctx context.Context,
	userID uint64,
	actionType string,
	relatedEntityID int64,
	relatedEntityType string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ReputationLog{}).
		Where("user_id = ? AND action_type = ? AND related_entity_id = ? AND related_entity_type = ?",
			userID, actionType, relatedEntityID, relatedEntityType).
		Count(&count).Error
	return count > 0, err
}

// ListForUser returns a user's log entries, newest first.
func (r *ReputationRepository) ListForUser(ctx context.Context, userID uint64, limit int) ([]db.ReputationLog, error) {
	var entries []db.ReputationLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
