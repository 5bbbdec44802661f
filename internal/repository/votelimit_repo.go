package repository

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteLimitRepository owns the per-(voter, target, day) vote counters used by
// the anti-gaming guard.
type VoteLimitRepository struct {
	db *gorm.DB
}

// NewVoteLimitRepository creates a new repository bound to the given DB connection.
func NewVoteLimitRepository(database *gorm.DB) *VoteLimitRepository {
	return &VoteLimitRepository{db: database}
}

// IncrementVote bumps the (voter, target, date) counter by one, creating the
// row on first vote.
//
// Behavior:
//   - Single upsert statement: INSERT ... ON CONFLICT vote_count = vote_count + 1.
//     Two concurrent votes both land; neither increment is lost.
func (r *VoteLimitRepository) IncrementVote(ctx context.Context, voterID, targetUserID uint64, voteDate string) error {
	row := db.VoteLimit{
		VoterID:      voterID,
		TargetUserID: targetUserID,
		VoteDate:     voteDate,
		VoteCount:    1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "voter_id"}, {Name: "target_user_id"}, {Name: "vote_date"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"vote_count": gorm.Expr("vote_count + 1"),
			}),
		}).
		Create(&row).Error
}

// DailyTotal sums the voter's counters across all targets for one date.
func (r *VoteLimitRepository) DailyTotal(ctx context.Context, voterID uint64, voteDate string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&db.VoteLimit{}).
		Select("COALESCE(SUM(vote_count), 0)").
		Where("voter_id = ? AND vote_date = ?", voterID, voteDate).
		Scan(&total).Error
	return int(total), err
}

// PairCount returns the (voter, target) counter for one date.
func (r *VoteLimitRepository) PairCount(ctx context.Context, voterID, targetUserID uint64, voteDate string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&db.VoteLimit{}).
		Select("COALESCE(SUM(vote_count), 0)").
		Where("voter_id = ? AND target_user_id = ? AND vote_date = ?", voterID, targetUserID, voteDate).
		Scan(&total).Error
	return int(total), err
}

// PairCountSince sums the (voter, target) counters for every date >= fromDate.
// Dates are ISO strings, so lexicographic comparison is chronological.
func (r *VoteLimitRepository) PairCountSince(ctx context.Context, voterID, targetUserID uint64, fromDate string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&db.VoteLimit{}).
		Select("COALESCE(SUM(vote_count), 0)").
		Where("voter_id = ? AND target_user_id = ? AND vote_date >= ?", voterID, targetUserID, fromDate).
		Scan(&total).Error
	return int(total), err
}
