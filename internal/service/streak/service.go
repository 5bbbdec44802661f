package streak

import (
	"context"
	"time"

	"github.com/peerpoint/scoring-engine/internal/app"
	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"github.com/peerpoint/scoring-engine/internal/repository"
	"github.com/peerpoint/scoring-engine/internal/service/reputation"
)

// DailyLoginPoints is the fixed award for every first login of a day, on top
// of any streak bonus.
const DailyLoginPoints = 1

// relatedEntityType used to key login awards onto their login record, so a
// retried call after a partial failure cannot double-credit.
const loginEntityType = "login_record"

// LoginResult reports the outcome of RecordDailyLogin.
type LoginResult struct {
	Streak          int
	BestStreak      int
	BonusAwarded    bool
	BonusPoints     int
	AlreadyRecorded bool
}

// Service is the Streak Tracker: daily login bookkeeping feeding bonus
// awards through the Reputation Engine's idempotent award primitive.
type Service struct {
	appCtx     *app.AppContext
	logins     *repository.LoginRepository
	users      *repository.UserRepository
	reputation *reputation.Service
	now        func() time.Time
}

// NewService creates the streak tracker with dependencies from AppContext.
func NewService(appCtx *app.AppContext, reputationSvc *reputation.Service) *Service {
	return &Service{
		appCtx:     appCtx,
		logins:     repository.NewLoginRepository(appCtx.DB),
		users:      repository.NewUserRepository(appCtx.DB),
		reputation: reputationSvc,
		now:        time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordDailyLogin registers a login for today's calendar date.
//
// Behavior:
//   - At most one record per (user, day); a second call the same day is a
//     no-op returning AlreadyRecorded = true and the current streak state.
//   - A record for yesterday continues the streak, anything older resets to 1.
//   - Every non-duplicate call awards the fixed daily point; streak length 7
//     adds the 7-day bonus, 30 the 30-day bonus, and any other multiple of 7
//     the weekly bonus. Awards go through the Reputation Engine keyed on the
//     login record, so retries stay idempotent.
func (s *Service) RecordDailyLogin(ctx context.Context, userID uint64) (*LoginResult, error) {
	if userID == 0 {
		return nil, svcErr.InvalidArgument("user_id must be a positive integer")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	today := s.now().UTC()
	todayStr := today.Format(db.DateLayout)
	yesterdayStr := today.AddDate(0, 0, -1).Format(db.DateLayout)

	hasYesterday, err := s.logins.HasLogin(ctx, userID, yesterdayStr)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	newStreak := 1
	if hasYesterday {
		newStreak = user.LoginStreak + 1
	}
	bonusAction, bonusPoints := bonusFor(newStreak)

	record := &db.LoginRecord{
		UserID:         userID,
		LoginDate:      todayStr,
		PointsAwarded:  DailyLoginPoints + bonusPoints,
		StreakAchieved: newStreak,
	}
	inserted, err := s.logins.InsertLogin(ctx, record)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !inserted {
		return &LoginResult{
			Streak:          user.LoginStreak,
			BestStreak:      user.BestStreak,
			AlreadyRecorded: true,
		}, nil
	}

	bestStreak := user.BestStreak
	if newStreak > bestStreak {
		bestStreak = newStreak
	}
	if err := s.users.UpdateStreak(ctx, userID, newStreak, bestStreak, todayStr); err != nil {
		return nil, svcErr.Map(err)
	}

	loginRef := &reputation.EntityRef{ID: int64(record.ID), Type: loginEntityType}
	if _, err := s.reputation.AwardPoints(ctx, userID, reputation.ActionDailyLogin, DailyLoginPoints, loginRef); err != nil {
		return nil, err
	}
	if bonusAction != "" {
		if _, err := s.reputation.AwardPoints(ctx, userID, bonusAction, bonusPoints, loginRef); err != nil {
			return nil, err
		}
		s.appCtx.Logger.Info("streak bonus awarded",
			"user_id", userID, "streak", newStreak, "bonus", bonusPoints, "action", bonusAction)
	}

	return &LoginResult{
		Streak:       newStreak,
		BestStreak:   bestStreak,
		BonusAwarded: bonusAction != "",
		BonusPoints:  bonusPoints,
	}, nil
}

// bonusFor returns the streak bonus due exactly at the given streak length.
// Day 7 and day 30 have dedicated bonuses; other multiples of 7 get the
// weekly bonus. The order prevents day 7 from double-firing as a weekly.
func bonusFor(streak int) (string, int) {
	switch {
	case streak == 7:
		return reputation.ActionStreak7Day, 5
	case streak == 30:
		return reputation.ActionStreak30Day, 15
	case streak > 0 && streak%7 == 0:
		return reputation.ActionStreakWeekly, 5
	default:
		return "", 0
	}
}
