package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ActivityType enumerates the activity kinds the directory records.
type ActivityType string

// Known activity types.
const (
	ActivityReview      ActivityType = "review"
	ActivityVouch       ActivityType = "vouch"
	ActivitySlash       ActivityType = "slash"
	ActivityVote        ActivityType = "vote"
	ActivityAttestation ActivityType = "attestation"
	ActivityProject     ActivityType = "project"
	ActivityMarket      ActivityType = "market"
)

var activityTypes = []ActivityType{
	ActivityReview,
	ActivityVouch,
	ActivitySlash,
	ActivityVote,
	ActivityAttestation,
	ActivityProject,
	ActivityMarket,
}

// ParseActivityType accepts singular or plural, any case.
func ParseActivityType(raw string) (ActivityType, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	candidates := []string{value, strings.TrimSuffix(value, "s"), strings.TrimSuffix(value, "es")}
	for _, t := range activityTypes {
		for _, c := range candidates {
			if string(t) == c {
				return t, nil
			}
		}
	}
	return "", fmt.Errorf("unknown activity type %q", raw)
}

// Direction selects which side of an activity the subject user is on.
type Direction string

// Activity directions understood by the directory.
const (
	DirectionGiven    Direction = "given"
	DirectionReceived Direction = "received"
	DirectionAll      Direction = "all"
)

// ParseDirection falls back to the given default for empty or unknown values.
func ParseDirection(raw string, fallback Direction) Direction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "given", "author", "authored", "sent":
		return DirectionGiven
	case "received", "subject", "incoming":
		return DirectionReceived
	case "all", "both":
		return DirectionAll
	default:
		return fallback
	}
}

// ActorRef identifies one side of an activity.
type ActorRef struct {
	Userkey  string `json:"userkey" yaml:"userkey"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Score    int64  `json:"score,omitempty" yaml:"score,omitempty"`
}

// VoteSummary counts votes cast on an activity.
type VoteSummary struct {
	Upvotes   int64 `json:"upvotes" yaml:"upvotes"`
	Downvotes int64 `json:"downvotes" yaml:"downvotes"`
}

// Net returns upvotes minus downvotes.
func (v VoteSummary) Net() int64 {
	return v.Upvotes - v.Downvotes
}

// Activity is a single entry of a user's reputation history.
type Activity struct {
	ID        string       `json:"id" yaml:"id"`
	Type      ActivityType `json:"activityType" yaml:"type"`
	Score     float64      `json:"score" yaml:"score"`
	Author    ActorRef     `json:"author" yaml:"author"`
	Subject   ActorRef     `json:"subject" yaml:"subject"`
	Timestamp time.Time    `json:"timestamp" yaml:"timestamp"`
	Comment   string       `json:"comment,omitempty" yaml:"comment,omitempty"`
	EthAmount string       `json:"ethAmount,omitempty" yaml:"ethAmount,omitempty"`
	Votes     VoteSummary  `json:"votes" yaml:"votes"`
}

// InvolvesUserkey reports whether key (case-insensitive) is the author or subject.
func (a Activity) InvolvesUserkey(key string, dir Direction) bool {
	authored := strings.EqualFold(a.Author.Userkey, key)
	received := strings.EqualFold(a.Subject.Userkey, key)
	switch dir {
	case DirectionGiven:
		return authored
	case DirectionReceived:
		return received
	default:
		return authored || received
	}
}

// WeeklySample is one data point of the directory's weekly XP series.
type WeeklySample struct {
	Week      int       `json:"week" yaml:"week"`
	WeekStart time.Time `json:"weekStart" yaml:"weekStart"`
	XP        int64     `json:"xp" yaml:"xp"`
}

// SortWeekly orders samples oldest first by week start, falling back to the
// week number when either start date is missing or the dates are equal.
func SortWeekly(samples []WeeklySample) {
	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if !a.WeekStart.IsZero() && !b.WeekStart.IsZero() && !a.WeekStart.Equal(b.WeekStart) {
			return a.WeekStart.Before(b.WeekStart)
		}
		return a.Week < b.Week
	})
}
