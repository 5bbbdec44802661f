package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/peerpoint/scoring-engine/internal/app"
	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"github.com/peerpoint/scoring-engine/internal/repository"
)

// Rejection reasons surfaced directly to the end user.
const (
	ReasonSelfVote      = "you cannot vote on your own content"
	ReasonDailyLimit    = "daily vote limit reached"
	ReasonRepeatedVotes = "daily vote limit for this user reached"
	ReasonMutualPattern = "voting pattern flagged, please try again later"
)

// Suspicious-activity types written by the guard.
const (
	activitySelfVote      = "self_vote_attempt"
	activityRepeatedVotes = "repeated_voting"
	activityMutualPattern = "mutual_voting_pattern"
)

// VoteVerdict is a normal return value, not an error: a rejected vote is an
// expected outcome.
type VoteVerdict struct {
	Allowed bool
	Reason  string
}

// Service is the Anti-Gaming Guard. Every reputation-affecting vote passes
// through ValidateVote before it reaches the Reputation Engine.
type Service struct {
	appCtx     *app.AppContext
	limits     *repository.VoteLimitRepository
	suspicious *repository.SuspiciousRepository
	now        func() time.Time
}

// NewService creates the guard with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		limits:     repository.NewVoteLimitRepository(appCtx.DB),
		suspicious: repository.NewSuspiciousRepository(appCtx.DB),
		now:        time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ValidateVote runs the anti-gaming rule chain and, when every rule passes,
// claims one vote slot for (voter, target, today).
//
// Rules in order, first failing rule wins; they are ordered cheapest and
// most common first:
//  1. self-vote — rejected and audited (low severity)
//  2. daily cap across all targets — rejected, no audit entry
//  3. per-target daily cap — rejected and audited (medium severity)
//  4. reverse-pair volume over the trailing mutual window — rejected and
//     audited (high severity); catches reciprocal upvote rings
//
// The guard fails OPEN: any storage fault yields Allowed = true so an
// infrastructure problem never blocks normal voting.
func (s *Service) ValidateVote(ctx context.Context, voterID, targetUserID uint64, votableType string) (*VoteVerdict, error) {
	if voterID == 0 {
		return nil, svcErr.InvalidArgument("voter_id must be a positive integer")
	}
	if targetUserID == 0 {
		return nil, svcErr.InvalidArgument("target_user_id must be a positive integer")
	}

	if voterID == targetUserID {
		s.audit(ctx, voterID, activitySelfVote,
			fmt.Sprintf("attempted to vote on own %s", votableType), db.SeverityLow)
		return &VoteVerdict{Allowed: false, Reason: ReasonSelfVote}, nil
	}

	eng := s.appCtx.Config.Engine
	now := s.now().UTC()
	today := now.Format(db.DateLayout)

	dailyTotal, err := s.limits.DailyTotal(ctx, voterID, today)
	if err != nil {
		return s.failOpen("daily total lookup", voterID, err), nil
	}
	if dailyTotal >= eng.DailyVoteLimit {
		return &VoteVerdict{Allowed: false, Reason: ReasonDailyLimit}, nil
	}

	pairCount, err := s.limits.PairCount(ctx, voterID, targetUserID, today)
	if err != nil {
		return s.failOpen("pair count lookup", voterID, err), nil
	}
	if pairCount >= eng.VotesPerTargetPerDay {
		s.audit(ctx, voterID, activityRepeatedVotes,
			fmt.Sprintf("more than %d votes on user %d in one day", eng.VotesPerTargetPerDay, targetUserID),
			db.SeverityMedium)
		return &VoteVerdict{Allowed: false, Reason: ReasonRepeatedVotes}, nil
	}

	windowStart := now.AddDate(0, 0, -eng.MutualVoteWindowDays).Format(db.DateLayout)
	reverseCount, err := s.limits.PairCountSince(ctx, targetUserID, voterID, windowStart)
	if err != nil {
		return s.failOpen("reverse pair lookup", voterID, err), nil
	}
	if reverseCount >= eng.MutualVoteThreshold {
		s.audit(ctx, voterID, activityMutualPattern,
			fmt.Sprintf("reciprocal voting with user %d: %d reverse votes in %d days",
				targetUserID, reverseCount, eng.MutualVoteWindowDays),
			db.SeverityHigh)
		return &VoteVerdict{Allowed: false, Reason: ReasonMutualPattern}, nil
	}

	if err := s.limits.IncrementVote(ctx, voterID, targetUserID, today); err != nil {
		return s.failOpen("counter increment", voterID, err), nil
	}
	return &VoteVerdict{Allowed: true}, nil
}

// failOpen logs a storage fault and allows the vote. Availability over
// strict abuse prevention, for this check only.
func (s *Service) failOpen(stage string, voterID uint64, err error) *VoteVerdict {
	s.appCtx.Logger.Warn("anti-gaming check failed open",
		"stage", stage, "voter_id", voterID, "err", err)
	return &VoteVerdict{Allowed: true}
}

// audit appends to the suspicious-activity trail; a write failure must not
// change the verdict.
func (s *Service) audit(ctx context.Context, userID uint64, activityType, details, severity string) {
	if err := s.suspicious.Record(ctx, userID, activityType, details, severity); err != nil {
		s.appCtx.Logger.Warn("failed to record suspicious activity",
			"user_id", userID, "type", activityType, "err", err)
	}
}
