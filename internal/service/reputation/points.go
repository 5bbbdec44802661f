package reputation

// Action types recognized by the engine. Grants and their reversals are
// distinct actions so each side of a retraction can be logged exactly once
// under the same idempotency key scheme.
const (
	ActionDailyLogin       = "daily_login"
	ActionQuestionPosted   = "question_posted"
	ActionAnswerPosted     = "answer_posted"
	ActionAnswerAccepted   = "answer_accepted"
	ActionAcceptGiven      = "accept_given"
	ActionUpvoteReceived   = "upvote_received"
	ActionDownvoteReceived = "downvote_received"
	ActionLikeReceived     = "like_received"
	ActionUnlikeReceived   = "unlike_received"
	ActionFollowerGained   = "follower_gained"
	ActionStreak7Day       = "streak_7_day"
	ActionStreak30Day      = "streak_30_day"
	ActionStreakWeekly     = "streak_weekly_bonus"
)

// pointTable is the canonical point schedule. The platform previously grew
// two overlapping point systems; this table is the single source of truth.
var pointTable = map[string]int{
	ActionDailyLogin:       1,
	ActionQuestionPosted:   5,
	ActionAnswerPosted:     10,
	ActionAnswerAccepted:   25,
	ActionAcceptGiven:      2,
	ActionUpvoteReceived:   10,
	ActionDownvoteReceived: -2,
	ActionLikeReceived:     3,
	ActionUnlikeReceived:   -3,
	ActionFollowerGained:   2,
	ActionStreak7Day:       5,
	ActionStreak30Day:      15,
	ActionStreakWeekly:     5,
}

// PointsFor returns the canonical point value for an action type.
func PointsFor(actionType string) (int, bool) {
	points, ok := pointTable[actionType]
	return points, ok
}
