package repository

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/db"
	"gorm.io/gorm"
)

// SuspiciousRepository appends to the write-only abuse audit trail.
type SuspiciousRepository struct {
	db *gorm.DB
}

// NewSuspiciousRepository creates a new repository bound to the given DB connection.
func NewSuspiciousRepository(database *gorm.DB) *SuspiciousRepository {
	return &SuspiciousRepository{db: database}
}

// Record appends one suspicious-activity entry.
func (r *SuspiciousRepository) Record(ctx context.Context, userID uint64, activityType, details, severity string) error {
	return r.db.WithContext(ctx).Create(&db.SuspiciousActivity{
		UserID:       userID,
		ActivityType: activityType,
		Details:      details,
		Severity:     severity,
	}).Error
}
