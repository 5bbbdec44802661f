package repository

import (
	"context"
	"time"

	"github.com/peerpoint/scoring-engine/internal/db"
	"gorm.io/gorm"
)

// ActivityRepository is the access layer over the append-only topic activity
// ledger. Rows are appended by live traffic, read in bulk by the trending
// sweep, and deleted only by retention cleanup.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new repository bound to the given DB connection.
func NewActivityRepository(database *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: database}
}

// Append records one activity event.
func (r *ActivityRepository) Append(ctx context.Context, entry *db.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// CountsByType returns per-activity-type event counts for a topic within
// [from, to).
func (r *ActivityRepository) CountsByType(
	ctx context.Context,
	topicID uint64,
	from, to time.Time,
) (map[string]int64, error) {
	type row struct {
		ActivityType string
		Total        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&db.ActivityLog{}).
		Select("activity_type, COUNT(*) AS total").
		Where("topic_id = ? AND created_at >= ? AND created_at < ?", topicID, from, to).
		Group("activity_type").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ActivityType] = row.Total
	}
	return counts, nil
}

// EventTimes returns the timestamps of every event for a topic within
// [from, to). The trending sweep turns these into per-event decay weights.
func (r *ActivityRepository) EventTimes(
	ctx context.Context,
	topicID uint64,
	from, to time.Time,
) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&db.ActivityLog{}).
		Where("topic_id = ? AND created_at >= ? AND created_at < ?", topicID, from, to).
		Pluck("created_at", &times).Error
	return times, err
}

// ActiveTopicIDs returns the distinct topics with any activity since the
// given instant.
func (r *ActivityRepository) ActiveTopicIDs(ctx context.Context, since time.Time) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.ActivityLog{}).
		Distinct("topic_id").
		Where("created_at >= ?", since).
		Order("topic_id ASC").
		Pluck("topic_id", &ids).Error
	return ids, err
}

// DeleteOlderThan removes ledger rows created strictly before cutoff and
// returns how many were deleted.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&db.ActivityLog{})
	return res.RowsAffected, res.Error
}
