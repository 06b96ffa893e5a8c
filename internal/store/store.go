// Package store holds the read-only profile datasets behind the mock and
// static degradation tiers.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// Profile is everything a local dataset knows about one user.
type Profile struct {
	User       domain.UserRecord     `json:"user" yaml:"user"`
	Aliases    []string              `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	WeeklyXP   []domain.WeeklySample `json:"weeklyXp,omitempty" yaml:"weeklyXp,omitempty"`
	Activities []domain.Activity     `json:"activities,omitempty" yaml:"activities,omitempty"`
}

// Store is a read-only source of profiles and activities.
type Store interface {
	FindProfile(ctx context.Context, desc domain.Descriptor) (Profile, bool, error)
	Leaderboard(ctx context.Context, limit int) ([]Profile, error)
	Search(ctx context.Context, query string, limit int) ([]Profile, error)
	Feed(ctx context.Context, types []domain.ActivityType, limit int) ([]domain.Activity, error)
	FindActivity(ctx context.Context, kind domain.ActivityType, id string) (domain.Activity, bool, error)
}

// ActivitiesFor filters the profile's activities by direction and type,
// newest first, capped at limit when limit > 0.
func (p Profile) ActivitiesFor(dir domain.Direction, types []domain.ActivityType, limit int) []domain.Activity {
	var out []domain.Activity
	for _, a := range p.Activities {
		if !matchesType(a.Type, types) || !p.involves(a, dir) {
			continue
		}
		out = append(out, a)
	}
	SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (p Profile) involves(a domain.Activity, dir domain.Direction) bool {
	if len(p.User.CanonicalKeys) == 0 {
		return true
	}
	for _, key := range p.User.CanonicalKeys {
		if a.InvolvesUserkey(key, dir) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders activities by timestamp descending, ties by id.
func SortNewestFirst(acts []domain.Activity) {
	sort.SliceStable(acts, func(i, j int) bool {
		if acts[i].Timestamp.Equal(acts[j].Timestamp) {
			return acts[i].ID < acts[j].ID
		}
		return acts[i].Timestamp.After(acts[j].Timestamp)
	})
}

func matchesType(t domain.ActivityType, types []domain.ActivityType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "@")))
}
