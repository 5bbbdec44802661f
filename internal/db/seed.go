package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func int64Ptr(v int64) *int64 { return &v }

// DefaultTiers is the canonical reputation ladder: ascending, contiguous
// [min, max) brackets, last bracket unbounded.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "Bronze", MinScore: 0, MaxScore: int64Ptr(200), Benefit: "basic profile flair"},
		{Name: "Silver", MinScore: 200, MaxScore: int64Ptr(600), Benefit: "5% mentor-session discount"},
		{Name: "Gold", MinScore: 600, MaxScore: int64Ptr(1500), Benefit: "10% mentor-session discount"},
		{Name: "Platinum", MinScore: 1500, MaxScore: nil, Benefit: "priority mentor matching"},
	}
}

// DefaultBadges is the static badge catalog.
func DefaultBadges() []Badge {
	return []Badge{
		{Code: "first_steps", Name: "First Steps", Description: "Earned 10 reputation points", Metric: MetricPoints, Threshold: 10},
		{Code: "established", Name: "Established", Description: "Earned 500 reputation points", Metric: MetricPoints, Threshold: 500},
		{Code: "curious_mind", Name: "Curious Mind", Description: "Posted 10 questions", Metric: MetricQuestionsPosted, Threshold: 10},
		{Code: "helping_hand", Name: "Helping Hand", Description: "Posted 25 answers", Metric: MetricAnswersPosted, Threshold: 25},
		{Code: "problem_solver", Name: "Problem Solver", Description: "10 answers accepted", Metric: MetricAcceptedAnswers, Threshold: 10},
		{Code: "crowd_favorite", Name: "Crowd Favorite", Description: "Reached 50 followers", Metric: MetricFollowers, Threshold: 50},
	}
}

// SeedCatalogs upserts the tier and badge catalogs. Idempotent; safe to run
// on every boot.
func SeedCatalogs(db *gorm.DB) error {
	for _, tier := range DefaultTiers() {
		t := tier
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_score", "max_score", "benefit"}),
		}).Create(&t).Error; err != nil {
			return fmt.Errorf("failed to seed tier %s: %w", tier.Name, err)
		}
	}
	for _, badge := range DefaultBadges() {
		b := badge
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "metric", "threshold"}),
		}).Create(&b).Error; err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", badge.Code, err)
		}
	}
	return nil
}

// SeedTestData resets the database and populates it with demo users and a
// spread of topic activity so the trending sweep has something to chew on.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"activity_logs", "trending_topics", "reputation_logs", "user_badges",
		"vote_limits", "suspicious_activities", "login_records", "users",
	}
	for _, tbl := range tables {
		if err := db.Exec("DELETE FROM " + tbl).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", tbl, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, tbl := range tables {
			db.Exec("ALTER TABLE " + tbl + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, tbl := range tables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", tbl)
		}
	}

	log.Println("Cleared existing data")

	if err := SeedCatalogs(db); err != nil {
		return err
	}

	// --- Seed Users ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := User{
			Username:        fmt.Sprintf("user%d", i),
			Email:           fmt.Sprintf("user%d@example.com", i),
			PasswordHash:    string(hash),
			Active:          true,
			QuestionsCount:  int64(r.Intn(20)),
			AnswersCount:    int64(r.Intn(40)),
			AcceptedAnswers: int64(r.Intn(12)),
			FollowersCount:  int64(r.Intn(80)),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed topic activity (~600 events over the last two weeks) ---
	types := []string{ActivityView, ActivitySearch, ActivityPost, ActivityLike, ActivityReply}
	for i := 0; i < 600; i++ {
		topicID := uint64(r.Intn(12) + 1)
		userID := uint64(r.Intn(20) + 1)
		// recent topics get denser recent activity so scores differentiate
		ageHours := r.Intn(14 * 24)
		if topicID <= 4 {
			ageHours = r.Intn(48)
		}

		entry := ActivityLog{
			TopicID:      topicID,
			UserID:       &userID,
			ActivityType: types[r.Intn(len(types))],
		}
		if err := db.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to seed activity: %w", err)
		}
		createdAt := time.Now().UTC().Add(-time.Duration(ageHours) * time.Hour)
		if err := db.Model(&ActivityLog{}).Where("id = ?", entry.ID).
			Update("created_at", createdAt).Error; err != nil {
			return fmt.Errorf("failed to backdate activity: %w", err)
		}
	}
	log.Println("Seeded topic activity.")

	return nil
}
