package reputation

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/app"
	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"github.com/peerpoint/scoring-engine/internal/repository"
	"gorm.io/gorm"
)

// EntityRef identifies the content record an award relates to. Together with
// (userID, actionType) it forms the idempotency key; awards without a ref
// (daily logins) cannot be de-duplicated and always credit.
type EntityRef struct {
	ID   int64
	Type string
}

// AwardResult is the outcome of AwardPoints. Duplicate awards are reported as
// success with PointsAwarded = 0 — callers distinguish them only through the
// Duplicate flag.
type AwardResult struct {
	PointsAwarded int
	NewScore      int64
	Tier          string
	TierChanged   bool
	Duplicate     bool
	NewBadges     []db.Badge
}

// TierResult is the outcome of RecalculateTier.
type TierResult struct {
	Tier    string
	Changed bool
	Benefit string
}

// Service is the Reputation Engine: idempotent point awarding, tier
// derivation, and badge evaluation over the shared user state.
type Service struct {
	appCtx *app.AppContext
}

// NewService creates the Reputation Engine with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// AwardPoints credits (or retracts) points for a user action.
//
// Behavior:
//   - With a related entity, the (user, action, entity) tuple is awarded at
//     most once: a repeat call is a no-op returning the current score and
//     Duplicate = true. De-duplication is the log table's unique index, not a
//     read-then-write check, so concurrent duplicates race safely.
//   - Log insert, atomic clamped score increment, and tier recomputation run
//     in one transaction. The log row goes first: a crash cannot leave the
//     score credited but unlogged, which would break later idempotency checks.
//   - Points may be negative (retractions); the score floors at 0.
//   - Badge evaluation runs after commit and is best-effort: its failure is
//     logged and swallowed, never rolling back the award.
func (s *Service) AwardPoints(
	ctx context.Context,
	userID uint64,
	actionType string,
	points int,
	related *EntityRef,
) (*AwardResult, error) {
	if userID == 0 {
		return nil, svcErr.InvalidArgument("user_id must be a positive integer")
	}
	if actionType == "" {
		return nil, svcErr.InvalidArgument("action_type is required")
	}

	result := &AwardResult{}
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		logs := repository.NewReputationRepository(tx)

		entry := &db.ReputationLog{
			UserID:     userID,
			ActionType: actionType,
			Points:     points,
		}
		if related != nil {
			id, typ := related.ID, related.Type
			entry.RelatedEntityID = &id
			entry.RelatedEntityType = &typ
		}

		inserted, err := logs.InsertAward(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			// already awarded: report current state, change nothing
			user, err := users.GetByID(ctx, userID)
			if err != nil {
				return err
			}
			tiers, err := users.ListTiers(ctx)
			if err != nil {
				return err
			}
			result.Duplicate = true
			result.NewScore = user.ReputationScore
			if tier := deriveTier(tiers, user.ReputationScore); tier != nil {
				result.Tier = tier.Name
			}
			return nil
		}

		if err := users.IncrementScore(ctx, userID, int64(points)); err != nil {
			return err
		}
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		tierName, changed, err := s.applyTier(ctx, users, user)
		if err != nil {
			return err
		}

		result.PointsAwarded = points
		result.NewScore = user.ReputationScore
		result.Tier = tierName
		result.TierChanged = changed
		return nil
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if !result.Duplicate {
		newBadges, err := s.EvaluateBadges(ctx, userID)
		if err != nil {
			s.appCtx.Logger.Error("badge evaluation failed", "user_id", userID, "err", err)
		} else {
			result.NewBadges = newBadges
		}
	}

	s.appCtx.Logger.Debug("points awarded",
		"user_id", userID, "action", actionType,
		"points", result.PointsAwarded, "score", result.NewScore,
		"duplicate", result.Duplicate,
	)
	return result, nil
}

// RecalculateTier re-derives the user's tier from the current score and
// stores it only when a bracket boundary was crossed. Idempotent and
// side-effect-free otherwise.
func (s *Service) RecalculateTier(ctx context.Context, userID uint64) (*TierResult, error) {
	if userID == 0 {
		return nil, svcErr.InvalidArgument("user_id must be a positive integer")
	}

	users := repository.NewUserRepository(s.appCtx.DB)
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	tiers, err := users.ListTiers(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	tier := deriveTier(tiers, user.ReputationScore)
	if tier == nil {
		return &TierResult{}, nil
	}

	changed := user.TierID != tier.ID
	if changed {
		if err := users.UpdateTier(ctx, userID, tier.ID); err != nil {
			return nil, svcErr.Map(err)
		}
	}
	return &TierResult{Tier: tier.Name, Changed: changed, Benefit: tier.Benefit}, nil
}

// EvaluateBadges checks every badge the user does not yet hold against the
// relevant aggregate and awards those whose threshold is met. Awarding is
// insert-or-ignore, so a concurrent evaluation of the same user never
// double-awards, and badges are never revoked afterward.
func (s *Service) EvaluateBadges(ctx context.Context, userID uint64) ([]db.Badge, error) {
	users := repository.NewUserRepository(s.appCtx.DB)
	badges := repository.NewBadgeRepository(s.appCtx.DB)

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	catalog, err := badges.ListBadges(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	owned, err := badges.OwnedBadgeIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	var earned []db.Badge
	for _, badge := range catalog {
		if owned[badge.ID] || statFor(user, badge.Metric) < badge.Threshold {
			continue
		}
		awarded, err := badges.AwardBadge(ctx, userID, badge.ID)
		if err != nil {
			return earned, svcErr.Map(err)
		}
		if awarded {
			s.appCtx.Logger.Info("badge earned", "user_id", userID, "badge", badge.Code)
			earned = append(earned, badge)
		}
	}
	return earned, nil
}

// applyTier derives the tier for user's current score inside an award
// transaction, persisting it only on change.
func (s *Service) applyTier(ctx context.Context, users *repository.UserRepository, user *db.User) (string, bool, error) {
	tiers, err := users.ListTiers(ctx)
	if err != nil {
		return "", false, err
	}
	tier := deriveTier(tiers, user.ReputationScore)
	if tier == nil {
		return "", false, nil
	}
	if user.TierID == tier.ID {
		return tier.Name, false, nil
	}
	if err := users.UpdateTier(ctx, user.ID, tier.ID); err != nil {
		return "", false, err
	}
	return tier.Name, true, nil
}

// deriveTier selects the unique [min, max) bracket containing score.
// tiers must be ordered by ascending MinScore; nil MaxScore means unbounded.
func deriveTier(tiers []db.Tier, score int64) *db.Tier {
	for i := range tiers {
		t := &tiers[i]
		if score >= t.MinScore && (t.MaxScore == nil || score < *t.MaxScore) {
			return t
		}
	}
	return nil
}

// statFor maps a badge metric to the user aggregate it thresholds against.
func statFor(user *db.User, metric string) int64 {
	switch metric {
	case db.MetricPoints:
		return user.ReputationScore
	case db.MetricQuestionsPosted:
		return user.QuestionsCount
	case db.MetricAnswersPosted:
		return user.AnswersCount
	case db.MetricAcceptedAnswers:
		return user.AcceptedAnswers
	case db.MetricFollowers:
		return user.FollowersCount
	default:
		return 0
	}
}
