package ledger

import (
	"context"

	"github.com/peerpoint/scoring-engine/internal/app"
	"github.com/peerpoint/scoring-engine/internal/db"
	svcErr "github.com/peerpoint/scoring-engine/internal/errors"
	"github.com/peerpoint/scoring-engine/internal/repository"
)

// Event is one topic activity occurrence reported by the platform.
type Event struct {
	TopicID           uint64
	UserID            *uint64 // nil for anonymous views/searches
	ActivityType      string
	RelatedQuestionID *int64
	RelatedAnswerID   *int64
}

// Service is the Activity Ledger's write surface: validation plus an
// append-only insert. Everything downstream (trending sweeps, retention)
// only ever reads or bulk-deletes.
type Service struct {
	appCtx   *app.AppContext
	activity *repository.ActivityRepository
}

// NewService creates the ledger service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		activity: repository.NewActivityRepository(appCtx.DB),
	}
}

// Record appends one event to the ledger.
func (s *Service) Record(ctx context.Context, event Event) error {
	if event.TopicID == 0 {
		return svcErr.InvalidArgument("topic_id must be a positive integer")
	}
	switch event.ActivityType {
	case db.ActivityView, db.ActivitySearch, db.ActivityPost, db.ActivityLike, db.ActivityReply:
	default:
		return svcErr.InvalidArgument("activity_type must be one of view, search, post, like, reply")
	}

	entry := &db.ActivityLog{
		TopicID:           event.TopicID,
		UserID:            event.UserID,
		ActivityType:      event.ActivityType,
		RelatedQuestionID: event.RelatedQuestionID,
		RelatedAnswerID:   event.RelatedAnswerID,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		return svcErr.Map(err)
	}
	return nil
}
