package engine

import (
	"github.com/cookedzera/RetroQuery/internal/aggregate"
	"github.com/cookedzera/RetroQuery/internal/domain"
)

// ProfileData is the payload of user_profile.
type ProfileData struct {
	domain.UserRecord
	Identity domain.Descriptor `json:"identity"`
}

// StatsData is the payload of user_stats.
type StatsData struct {
	domain.UserRecord
	XP aggregate.Window `json:"xp"`
}

// ReviewSummary counts reviews by sentiment.
type ReviewSummary struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// ReviewsData is the payload of user_reviews.
type ReviewsData struct {
	Userkey   string            `json:"userkey"`
	Name      string            `json:"name"`
	Direction domain.Direction  `json:"direction"`
	Summary   ReviewSummary     `json:"summary"`
	Reviews   []domain.Activity `json:"reviews"`
}

// Deltas are value(a) - value(b), except Rank which is rank(b) - rank(a)
// so that a positive number always favours a.
type Deltas struct {
	Score   int64  `json:"score"`
	Reviews int64  `json:"reviews"`
	Vouches int64  `json:"vouches"`
	Rank    *int64 `json:"rank,omitempty"`
}

// ComparisonData is the payload of user_comparison.
type ComparisonData struct {
	UserA  domain.UserRecord `json:"userA"`
	UserB  domain.UserRecord `json:"userB"`
	Deltas Deltas            `json:"deltas"`
}

// ActivitiesData is the payload of user_activities.
type ActivitiesData struct {
	Userkey    string                `json:"userkey"`
	Direction  domain.Direction      `json:"direction"`
	Types      []domain.ActivityType `json:"activityTypes,omitempty"`
	Activities []domain.Activity     `json:"activities"`
}

// HistoryData is the payload of activity_history.
type HistoryData struct {
	Userkey    string              `json:"userkey"`
	Timeframe  aggregate.Timeframe `json:"timeframe"`
	Activities []domain.Activity   `json:"activities"`
	Buckets    []aggregate.Bucket  `json:"buckets"`
}

// VotesData is the payload of activity_votes.
type VotesData struct {
	ActivityID   string              `json:"activityId"`
	ActivityType domain.ActivityType `json:"activityType"`
	domain.VoteSummary
	Net int64 `json:"net"`
}

// BetweenData is the payload of review_between.
type BetweenData struct {
	Author  domain.UserRecord `json:"author"`
	Subject domain.UserRecord `json:"subject"`
	Found   bool              `json:"found"`
	Reviews []domain.Activity `json:"reviews"`
}

// Network is one account linked to a profile.
type Network struct {
	Service    string `json:"service"`
	Identifier string `json:"identifier"`
	Userkey    string `json:"userkey"`
}

// NetworksData is the payload of connected_networks.
type NetworksData struct {
	Userkey  string    `json:"userkey"`
	Name     string    `json:"name"`
	Networks []Network `json:"networks"`
}

// TrendData is the payload of reputation_trend.
type TrendData struct {
	Userkey string                `json:"userkey"`
	Score   int64                 `json:"score"`
	Window  aggregate.Window      `json:"window"`
	Weekly  []domain.WeeklySample `json:"weekly"`
	Buckets []aggregate.Bucket    `json:"buckets"`
}
