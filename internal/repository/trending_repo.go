package repository

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrendingRepository persists the per-topic computed trending scores.
// One row per topic with replace semantics; the sweep owns every column.
type TrendingRepository struct {
	db *gorm.DB
}

// NewTrendingRepository creates a new repository bound to the given DB connection.
func NewTrendingRepository(database *gorm.DB) *TrendingRepository {
	return &TrendingRepository{db: database}
}

// Upsert writes a topic's freshly computed score row, replacing any previous
// sweep's values for that topic.
func (r *TrendingRepository) Upsert(ctx context.Context, row *db.TrendingTopic) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"trending_score", "views_count", "searches_count", "posts_count",
				"likes_count", "replies_count", "growth_rate_percent",
				"base_score", "decay_factor", "calculated_at",
			}),
		}).
		Create(row).Error
}

// ListByScoreDesc returns every trending row ordered for rank assignment:
// score descending, topic id ascending as the stable tiebreak.
func (r *TrendingRepository) ListByScoreDesc(ctx context.Context) ([]db.TrendingTopic, error) {
	var rows []db.TrendingTopic
	err := r.db.WithContext(ctx).
		Order("trending_score DESC, topic_id ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateRank persists the computed rank for one topic.
func (r *TrendingRepository) UpdateRank(ctx context.Context, topicID uint64, rank int) error {
	return r.db.WithContext(ctx).
		Model(&db.TrendingTopic{}).
		Where("topic_id = ?", topicID).
		Update("rank", rank).Error
}

// TopN returns the best-ranked topics, up to limit.
func (r *TrendingRepository) TopN(ctx context.Context, limit int) ([]db.TrendingTopic, error) {
	var rows []db.TrendingTopic
	err := r.db.WithContext(ctx).
		Order("trending_score DESC, topic_id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// RankedTopicIDs returns the topics that already have a score row. Sweeps
// revisit these even when a topic went quiet, so stale scores decay to zero
// instead of freezing.
func (r *TrendingRepository) RankedTopicIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.TrendingTopic{}).
		Order("topic_id ASC").
		Pluck("topic_id", &ids).Error
	return ids, err
}
