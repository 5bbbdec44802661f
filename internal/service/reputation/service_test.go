package reputation_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peerpoint/scoring-engine/internal/app"
	"github.com/peerpoint/scoring-engine/internal/cache"
	"github.com/peerpoint/scoring-engine/internal/config"
	"github.com/peerpoint/scoring-engine/internal/db"
	"github.com/peerpoint/scoring-engine/internal/service/reputation"
)

// setupService spins up an in-memory SQLite DB with the tier/badge catalogs,
// a miniredis, and wires everything into a reputation Service.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) (*reputation.Service, *gorm.DB) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.SeedCatalogs(gdb))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(gdb, redisCache, logger, cfg)
	return reputation.NewService(appCtx), gdb
}

func createUser(t *testing.T, gdb *gorm.DB, username string) *db.User {
	t.Helper()
	user := db.User{Username: username, Email: username + "@test.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&user).Error)
	return &user
}

// TestAwardPointsIdempotent verifies that awarding the same (user, action,
// entity) twice credits once and leaves exactly one log entry.
func TestAwardPointsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)
	user := createUser(t, gdb, "bob")

	ref := &reputation.EntityRef{ID: 42, Type: "answer"}

	res, err := svc.AwardPoints(ctx, user.ID, reputation.ActionUpvoteReceived, 10, ref)
	require.NoError(t, err)
	assert.Equal(t, 10, res.PointsAwarded)
	assert.Equal(t, int64(10), res.NewScore)
	assert.False(t, res.Duplicate)

	// repeat: no-op that reports current state
	res, err = svc.AwardPoints(ctx, user.ID, reputation.ActionUpvoteReceived, 10, ref)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 0, res.PointsAwarded)
	assert.Equal(t, int64(10), res.NewScore)

	var logCount int64
	require.NoError(t, gdb.Model(&db.ReputationLog{}).Where("user_id = ?", user.ID).Count(&logCount).Error)
	assert.Equal(t, int64(1), logCount)
}

// TestAwardPointsClampsAtZero verifies a retraction never drives the score
// negative.
func TestAwardPointsClampsAtZero(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)
	user := createUser(t, gdb, "carol")

	res, err := svc.AwardPoints(ctx, user.ID, reputation.ActionLikeReceived, 3,
		&reputation.EntityRef{ID: 1, Type: "answer"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.NewScore)

	// reversal is a distinct action type with its own idempotency key
	res, err = svc.AwardPoints(ctx, user.ID, reputation.ActionUnlikeReceived, -3,
		&reputation.EntityRef{ID: 1, Type: "answer"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.NewScore)

	res, err = svc.AwardPoints(ctx, user.ID, reputation.ActionDownvoteReceived, -2,
		&reputation.EntityRef{ID: 2, Type: "answer"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.NewScore, "score floors at zero")
}

// TestAwardPointsWithoutEntityAlwaysCredits verifies entity-less awards have
// no idempotency key and credit on every call.
func TestAwardPointsWithoutEntityAlwaysCredits(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)
	user := createUser(t, gdb, "dave")

	for i := 1; i <= 3; i++ {
		res, err := svc.AwardPoints(ctx, user.ID, reputation.ActionDailyLogin, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.PointsAwarded)
		assert.Equal(t, int64(i), res.NewScore)
	}
}

// TestTierBoundary checks the [min, max) bracket edges: score 199 stays in
// the first tier, 200 promotes to the second.
func TestTierBoundary(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)
	user := createUser(t, gdb, "erin")

	res, err := svc.AwardPoints(ctx, user.ID, "import_backfill", 199, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bronze", res.Tier)

	res, err = svc.AwardPoints(ctx, user.ID, "import_backfill", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.NewScore)
	assert.Equal(t, "Silver", res.Tier)
	assert.True(t, res.TierChanged)
}

func TestRecalculateTierIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)
	user := createUser(t, gdb, "frank")

	require.NoError(t, gdb.Model(&db.User{}).Where("id = ?", user.ID).
		Update("reputation_score", 650).Error)

	res, err := svc.RecalculateTier(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gold", res.Tier)
	assert.True(t, res.Changed)
	assert.NotEmpty(t, res.Benefit)

	// no boundary crossed: side-effect-free
	res, err = svc.RecalculateTier(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gold", res.Tier)
	assert.False(t, res.Changed)
}

// TestBadgesMonotonic verifies a badge survives its statistic later dropping
// below threshold, and is never re-awarded.
func TestBadgesMonotonic(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)
	user := createUser(t, gdb, "grace")

	require.NoError(t, gdb.Model(&db.User{}).Where("id = ?", user.ID).
		Update("accepted_answers", 10).Error)

	earned, err := svc.EvaluateBadges(ctx, user.ID)
	require.NoError(t, err)
	codes := badgeCodes(earned)
	assert.Contains(t, codes, "problem_solver")

	// statistic drops (an accepted answer was unaccepted)
	require.NoError(t, gdb.Model(&db.User{}).Where("id = ?", user.ID).
		Update("accepted_answers", 5).Error)

	earned, err = svc.EvaluateBadges(ctx, user.ID)
	require.NoError(t, err)
	assert.NotContains(t, badgeCodes(earned), "problem_solver")

	var owned int64
	require.NoError(t, gdb.Model(&db.UserBadge{}).Where("user_id = ?", user.ID).Count(&owned).Error)
	assert.Equal(t, int64(1), owned, "badge is kept, not revoked")
}

func TestAwardPointsGrantsPointBadges(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)
	user := createUser(t, gdb, "heidi")

	res, err := svc.AwardPoints(ctx, user.ID, reputation.ActionAnswerPosted, 10,
		&reputation.EntityRef{ID: 5, Type: "answer"})
	require.NoError(t, err)
	assert.Contains(t, badgeCodes(res.NewBadges), "first_steps")
}

func TestPointsFor(t *testing.T) {
	points, ok := reputation.PointsFor(reputation.ActionAnswerAccepted)
	require.True(t, ok)
	assert.Equal(t, 25, points)

	_, ok = reputation.PointsFor("unknown_action")
	assert.False(t, ok)
}

func badgeCodes(badges []db.Badge) []string {
	codes := make([]string, 0, len(badges))
	for _, b := range badges {
		codes = append(codes, b.Code)
	}
	return codes
}
