package db

import (
	"time"
)

// Activity types recorded in the ledger.
const (
	ActivityView   = "view"
	ActivitySearch = "search"
	ActivityPost   = "post"
	ActivityLike   = "like"
	ActivityReply  = "reply"
)

// Severity levels for suspicious-activity records.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Badge metrics — which user aggregate a badge threshold is compared against.
const (
	MetricPoints          = "points"
	MetricQuestionsPosted = "questions_posted"
	MetricAnswersPosted   = "answers_posted"
	MetricAcceptedAnswers = "accepted_answers"
	MetricFollowers       = "followers"
)

// DateLayout is the calendar-date format used by vote counters and login
// records. Calendar days, not rolling 24h windows.
const DateLayout = "2006-01-02"

// User table. The engine mutates only the aggregate fields: ReputationScore
// (clamped at 0, incremented atomically), TierID, and the streak columns.
// The content counters (questions, answers, accepted answers, followers) are
// maintained by the platform and only read here, by badge evaluation.
type User struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	Username        string `gorm:"uniqueIndex;size:64;not null"`
	Email           string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash    string `gorm:"size:255;not null"`
	Active          bool   `gorm:"default:true"`
	ReputationScore int64  `gorm:"not null;default:0"`
	TierID          uint64 `gorm:"not null;default:0;index"`
	LoginStreak     int    `gorm:"not null;default:0"`
	BestStreak      int    `gorm:"not null;default:0"`
	LastLoginDate   string `gorm:"size:10"`

	QuestionsCount  int64 `gorm:"not null;default:0"`
	AnswersCount    int64 `gorm:"not null;default:0"`
	AcceptedAnswers int64 `gorm:"not null;default:0"`
	FollowersCount  int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Tier is one bracket of the reputation ladder. Brackets are ascending and
// contiguous: a user's tier is the unique row with MinScore <= score and
// (MaxScore is NULL or score < MaxScore). NULL MaxScore means unbounded.
type Tier struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"uniqueIndex;size:64;not null"`
	MinScore int64  `gorm:"not null;index"`
	MaxScore *int64
	Benefit  string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ReputationLog records every point award.
//
// Composite unique index ux_award_key(user_id, action_type,
// related_entity_id, related_entity_type) is the idempotency key: with a
// related entity present, at most one row can exist per rewardable action,
// and a second insert is ignored instead of double-crediting. NULL related
// columns never collide under MySQL/SQLite unique-index semantics, so
// entity-less awards (daily login) always insert.
type ReputationLog struct {
	ID                uint64  `gorm:"primaryKey;autoIncrement"`
	UserID            uint64  `gorm:"not null;index;uniqueIndex:ux_award_key,priority:1"`
	ActionType        string  `gorm:"size:50;not null;uniqueIndex:ux_award_key,priority:2"`
	Points            int     `gorm:"not null"`
	RelatedEntityID   *int64  `gorm:"uniqueIndex:ux_award_key,priority:3"`
	RelatedEntityType *string `gorm:"size:50;uniqueIndex:ux_award_key,priority:4"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index"`
}

// Badge is a row of the static badge catalog.
type Badge struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Code        string `gorm:"uniqueIndex;size:64;not null"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"size:255"`
	Metric      string `gorm:"size:32;not null"`
	Threshold   int64  `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// UserBadge is the earned-at record. A user holds a badge at most once and
// badges are never revoked.
type UserBadge struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	UserID   uint64    `gorm:"not null;uniqueIndex:ux_user_badge,priority:1"`
	BadgeID  uint64    `gorm:"not null;uniqueIndex:ux_user_badge,priority:2"`
	EarnedAt time.Time `gorm:"autoCreateTime"`
}

// ActivityLog is the append-only topic activity ledger. Rows are never
// updated; only retention cleanup deletes them.
//
// idx_topic_created(topic_id, created_at) serves the per-topic window counts
// of the trending sweep.
type ActivityLog struct {
	ID                uint64  `gorm:"primaryKey;autoIncrement"`
	TopicID           uint64  `gorm:"not null;index:idx_topic_created,priority:1"`
	UserID            *uint64 `gorm:"index"`
	ActivityType      string  `gorm:"size:16;not null"`
	RelatedQuestionID *int64
	RelatedAnswerID   *int64
	CreatedAt         time.Time `gorm:"autoCreateTime;index;index:idx_topic_created,priority:2"`
}

// TrendingTopic holds the computed trending score, one row per topic,
// replaced in full by every sweep.
type TrendingTopic struct {
	ID                uint64  `gorm:"primaryKey;autoIncrement"`
	TopicID           uint64  `gorm:"uniqueIndex;not null"`
	TrendingScore     float64 `gorm:"not null;default:0;index"`
	ViewsCount        int64   `gorm:"not null;default:0"`
	SearchesCount     int64   `gorm:"not null;default:0"`
	PostsCount        int64   `gorm:"not null;default:0"`
	LikesCount        int64   `gorm:"not null;default:0"`
	RepliesCount      int64   `gorm:"not null;default:0"`
	GrowthRatePercent float64 `gorm:"not null;default:0"`
	BaseScore         float64 `gorm:"not null;default:0"`
	DecayFactor       float64 `gorm:"not null;default:0"`
	Rank              int     `gorm:"not null;default:0"`
	CalculatedAt      time.Time
}

// VoteLimit is the per-(voter, target, calendar day) vote counter, mutated
// only by a single-statement upsert-increment.
type VoteLimit struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	VoterID      uint64 `gorm:"not null;uniqueIndex:ux_vote_limit,priority:1;index:idx_voter_date,priority:1"`
	TargetUserID uint64 `gorm:"not null;uniqueIndex:ux_vote_limit,priority:2"`
	VoteDate     string `gorm:"size:10;not null;uniqueIndex:ux_vote_limit,priority:3;index:idx_voter_date,priority:2"`
	VoteCount    int    `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// SuspiciousActivity is the write-only abuse audit trail, read by admin
// tooling outside this service.
type SuspiciousActivity struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       uint64    `gorm:"not null;index"`
	ActivityType string    `gorm:"size:50;not null"`
	Details      string    `gorm:"size:255"`
	Severity     string    `gorm:"size:16;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// LoginRecord stores one row per (user, calendar day) login; the unique index
// is what makes the daily award fire at most once per day.
type LoginRecord struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	UserID         uint64 `gorm:"not null;uniqueIndex:ux_user_login_date,priority:1"`
	LoginDate      string `gorm:"size:10;not null;uniqueIndex:ux_user_login_date,priority:2"`
	PointsAwarded  int    `gorm:"not null;default:0"`
	StreakAchieved int    `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}
