package streak_test

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
	"github.com/peerpoint/scoring-engine/internal/service/streak"
)

func setupStreak(t *testing.T) (*streak.Service, *gorm.DB) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
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
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, redisCache, logger, cfg)

	return streak.NewService(appCtx, reputation.NewService(appCtx)), gdb
}

func userScore(t *testing.T, gdb *gorm.DB, userID uint64) int64 {
	t.Helper()
	var user db.User
	require.NoError(t, gdb.First(&user, userID).Error)
	return user.ReputationScore
}

// TestSevenDayStreakBonus logs in seven days in a row: streak reaches 7, the
// 7-day bonus fires exactly once, and the score is 7·1 + 5.
func TestSevenDayStreakBonus(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupStreak(t)

	user := db.User{Username: "alice", Email: "alice@test.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&user).Error)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cur := start
	svc.WithClock(func() time.Time { return cur })

	var last *streak.LoginResult
	for day := 0; day < 7; day++ {
		cur = start.AddDate(0, 0, day)
		res, err := svc.RecordDailyLogin(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, res.AlreadyRecorded)
		last = res
	}

	assert.Equal(t, 7, last.Streak)
	assert.Equal(t, 7, last.BestStreak)
	assert.True(t, last.BonusAwarded)
	assert.Equal(t, 5, last.BonusPoints)
	assert.Equal(t, int64(12), userScore(t, gdb, user.ID))

	var bonusLogs int64
	require.NoError(t, gdb.Model(&db.ReputationLog{}).
		Where("user_id = ? AND action_type = ?", user.ID, reputation.ActionStreak7Day).
		Count(&bonusLogs).Error)
	assert.Equal(t, int64(1), bonusLogs)
}

// TestSameDayLoginIsNoOp: the second call on one calendar day changes nothing.
func TestSameDayLoginIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupStreak(t)

	user := db.User{Username: "bob", Email: "bob@test.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&user).Error)

	cur := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return cur })

	res, err := svc.RecordDailyLogin(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)

	cur = cur.Add(10 * time.Hour) // same date, later that day
	res, err = svc.RecordDailyLogin(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyRecorded)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, int64(1), userScore(t, gdb, user.ID))
}

// TestGapResetsStreak: skipping a day restarts at 1 while best streak is kept.
func TestGapResetsStreak(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupStreak(t)

	user := db.User{Username: "carol", Email: "carol@test.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&user).Error)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cur := start
	svc.WithClock(func() time.Time { return cur })

	for day := 0; day < 3; day++ {
		cur = start.AddDate(0, 0, day)
		_, err := svc.RecordDailyLogin(ctx, user.ID)
		require.NoError(t, err)
	}

	cur = start.AddDate(0, 0, 4) // day 3 skipped
	res, err := svc.RecordDailyLogin(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, 3, res.BestStreak)

	var stored db.User
	require.NoError(t, gdb.First(&stored, user.ID).Error)
	assert.Equal(t, 1, stored.LoginStreak)
	assert.Equal(t, 3, stored.BestStreak)
}

func TestThirtyDayStreakBonus(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupStreak(t)

	user := db.User{Username: "dave", Email: "dave@test.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&user).Error)

	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	cur := start
	svc.WithClock(func() time.Time { return cur })

	var last *streak.LoginResult
	for day := 0; day < 30; day++ {
		cur = start.AddDate(0, 0, day)
		res, err := svc.RecordDailyLogin(ctx, user.ID)
		require.NoError(t, err)
		last = res
	}

	assert.Equal(t, 30, last.Streak)
	assert.True(t, last.BonusAwarded)
	assert.Equal(t, 15, last.BonusPoints)

	// day 7 → 5, days 14/21/28 → 5 each, day 30 → 15, logins → 30
	assert.Equal(t, int64(30+5+15+15), userScore(t, gdb, user.ID))
}

func TestRecordDailyLoginUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupStreak(t)

	_, err := svc.RecordDailyLogin(ctx, 999)
	assert.Error(t, err)
}
