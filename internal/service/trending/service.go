package trending

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/peerpoint/scoring-engine/internal/app"
	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"github.com/peerpoint/scoring-engine/internal/repository"
)

// Supported scoring windows. The previous period of equal length immediately
// precedes the window, so a sweep reads back at most twice the window.
const (
	Window24h = 24 * time.Hour
	Window7d  = 7 * 24 * time.Hour
	Window30d = 30 * 24 * time.Hour
)

const (
	// Lambda is the hourly exponential decay rate for event ages.
	Lambda = 0.1

	// DefaultDecayFactor applies when a topic has no events in the current
	// period, keeping the topic rankable instead of undefined.
	DefaultDecayFactor = 0.5

	// DefaultTopLimit is the list size cached after each sweep.
	DefaultTopLimit = 10
)

// activityWeights favor sustained engagement: replies and posts over likes,
// searches (latent interest) over views.
var activityWeights = map[string]float64{
	db.ActivityView:   1,
	db.ActivitySearch: 2,
	db.ActivityPost:   5,
	db.ActivityLike:   3,
	db.ActivityReply:  4,
}

// SweepStats summarizes one sweep run.
type SweepStats struct {
	TopicsScored int
	Window       time.Duration
	Took         time.Duration
}

// Service is the Trending Scoring Engine: a periodic batch recomputation of
// decayed, growth-adjusted per-topic scores from the activity ledger. It
// never touches reputation state.
type Service struct {
	appCtx   *app.AppContext
	activity *repository.ActivityRepository
	trending *repository.TrendingRepository
	now      func() time.Time
}

// NewService creates the trending engine with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		activity: repository.NewActivityRepository(appCtx.DB),
		trending: repository.NewTrendingRepository(appCtx.DB),
		now:      time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Sweep recomputes every topic's trending score using the configured window.
// This is both the scheduled entry point and the manual trigger path.
func (s *Service) Sweep(ctx context.Context) (*SweepStats, error) {
	return s.SweepWindow(ctx, s.appCtx.Config.Engine.TrendingWindow)
}

// SweepWindow recomputes all scores for the given window.
//
// Behavior:
//   - Scores every topic active in [now−2W, now] plus every topic that
//     already holds a score row, so quiet topics decay instead of freezing.
//   - Idempotent: two immediate runs with no new activity produce identical
//     scores. Between runs scores only shrink (pure decay) — intended.
//   - Tolerates a moving dataset; upserts make overlapping runs safe.
func (s *Service) SweepWindow(ctx context.Context, window time.Duration) (*SweepStats, error) {
	switch window {
	case Window24h, Window7d, Window30d:
	default:
		return nil, svcErr.InvalidArgument("window must be 24h, 7d or 30d")
	}

	started := s.now()
	now := started.UTC()
	prevStart := now.Add(-2 * window)

	topicIDs, err := s.topicsToScore(ctx, prevStart)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	for _, topicID := range topicIDs {
		row, err := s.scoreTopic(ctx, topicID, window, now)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		if err := s.trending.Upsert(ctx, row); err != nil {
			return nil, svcErr.Map(err)
		}
	}

	if err := s.assignRanks(ctx); err != nil {
		return nil, svcErr.Map(err)
	}
	s.refreshTopCache(ctx)

	stats := &SweepStats{
		TopicsScored: len(topicIDs),
		Window:       window,
		Took:         s.now().Sub(started),
	}
	s.appCtx.Logger.Info("trending sweep finished",
		"topics", stats.TopicsScored, "window", window.String(), "took", stats.Took.String())
	return stats, nil
}

// TopTopics returns the best-ranked topics, cache-first.
//
// Cache strategy mirrors the rest of the read path:
//  1. Redis (trending:top:N) with the configured TTL.
//  2. On miss, DB, then populate the cache.
//
// The sweep refreshes the default-limit entry after every run, so readers
// rarely hit the DB.
func (s *Service) TopTopics(ctx context.Context, limit int) ([]db.TrendingTopic, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	key := s.appCtx.RedisCache.KeyForTrendingTop(limit)
	payload, err := s.appCtx.RedisCache.GetOrCompute(ctx, key, s.appCtx.Config.Engine.TrendingCacheTTL,
		func(ctx context.Context) (string, error) {
			rows, err := s.trending.TopN(ctx, limit)
			if err != nil {
				return "", err
			}
			raw, err := json.Marshal(rows)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	var rows []db.TrendingTopic
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, svcErr.Map(err)
	}
	return rows, nil
}

// CleanupActivity deletes ledger rows past retention. The cutoff never cuts
// into twice the largest supported window, so a concurrently running sweep
// cannot observe rows disappearing from its read range.
func (s *Service) CleanupActivity(ctx context.Context) (int64, error) {
	retention := time.Duration(s.appCtx.Config.Engine.ActivityRetentionDays) * 24 * time.Hour
	if minKeep := 2 * Window30d; retention < minKeep {
		retention = minKeep
	}
	cutoff := s.now().UTC().Add(-retention)

	deleted, err := s.activity.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if deleted > 0 {
		s.appCtx.Logger.Info("activity retention cleanup", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// GrowthRate returns the percentage change between the previous and current
// period totals, rounded to 2 decimals. A topic appearing from nothing grows
// 100%; two dead periods grow 0%.
func GrowthRate(currentTotal, previousTotal int64) float64 {
	switch {
	case previousTotal == 0 && currentTotal > 0:
		return 100
	case previousTotal == 0:
		return 0
	default:
		return Round2(float64(currentTotal-previousTotal) / float64(previousTotal) * 100)
	}
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// topicsToScore merges topics active since prevStart with topics already
// holding a score row, deduplicated and in stable ascending order.
func (s *Service) topicsToScore(ctx context.Context, prevStart time.Time) ([]uint64, error) {
	active, err := s.activity.ActiveTopicIDs(ctx, prevStart)
	if err != nil {
		return nil, err
	}
	ranked, err := s.trending.RankedTopicIDs(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]bool, len(active)+len(ranked))
	var ids []uint64
	for _, id := range append(active, ranked...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// scoreTopic computes one topic's trending row for the window ending at now.
//
//	base  = views·1 + searches·2 + posts·5 + likes·3 + replies·4
//	decay = mean over current-period events of exp(−λ·ageHours), 0.5 if none
//	score = round2(base × decay × (1 + growth/100))
func (s *Service) scoreTopic(ctx context.Context, topicID uint64, window time.Duration, now time.Time) (*db.TrendingTopic, error) {
	start := now.Add(-window)
	prevStart := now.Add(-2 * window)

	current, err := s.activity.CountsByType(ctx, topicID, start, now)
	if err != nil {
		return nil, err
	}
	previous, err := s.activity.CountsByType(ctx, topicID, prevStart, start)
	if err != nil {
		return nil, err
	}

	var base float64
	var currentTotal, previousTotal int64
	for typ, count := range current {
		base += activityWeights[typ] * float64(count)
		currentTotal += count
	}
	for _, count := range previous {
		previousTotal += count
	}

	decay := DefaultDecayFactor
	times, err := s.activity.EventTimes(ctx, topicID, start, now)
	if err != nil {
		return nil, err
	}
	if len(times) > 0 {
		var sum float64
		for _, ts := range times {
			sum += math.Exp(-Lambda * now.Sub(ts).Hours())
		}
		decay = sum / float64(len(times))
	}

	growth := GrowthRate(currentTotal, previousTotal)
	score := Round2(base * decay * (1 + growth/100))

	return &db.TrendingTopic{
		TopicID:           topicID,
		TrendingScore:     score,
		ViewsCount:        current[db.ActivityView],
		SearchesCount:     current[db.ActivitySearch],
		PostsCount:        current[db.ActivityPost],
		LikesCount:        current[db.ActivityLike],
		RepliesCount:      current[db.ActivityReply],
		GrowthRatePercent: growth,
		BaseScore:         Round2(base),
		DecayFactor:       decay,
		CalculatedAt:      now,
	}, nil
}

// assignRanks writes ranks 1..N by score descending, topic id ascending on
// ties so repeated sweeps are stable.
func (s *Service) assignRanks(ctx context.Context) error {
	rows, err := s.trending.ListByScoreDesc(ctx)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err := s.trending.UpdateRank(ctx, row.TopicID, i+1); err != nil {
			return err
		}
	}
	return nil
}

// refreshTopCache repopulates the default top-N cache entry. Best effort: a
// cache fault never fails the sweep.
func (s *Service) refreshTopCache(ctx context.Context) {
	rows, err := s.trending.TopN(ctx, DefaultTopLimit)
	if err != nil {
		s.appCtx.Logger.Warn("failed to refresh trending cache", "err", err)
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	key := s.appCtx.RedisCache.KeyForTrendingTop(DefaultTopLimit)
	if err := s.appCtx.RedisCache.Set(ctx, key, string(raw), s.appCtx.Config.Engine.TrendingCacheTTL); err != nil {
		s.appCtx.Logger.Warn("failed to refresh trending cache", "err", err)
	}
}
