package store

import (
	"context"
	"sort"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// MatchMode decides which keys a Dataset indexes.
type MatchMode int

const (
	// MatchNames indexes usernames and wallet addresses only, matched
	// case-insensitively. Used by the static tier.
	MatchNames MatchMode = iota
	// MatchIdentifiers additionally indexes every userkey and alias, so the
	// same normalized identifiers the resolver uses will hit. Used by the
	// mock tier.
	MatchIdentifiers
)

// Dataset is an immutable in-memory Store.
type Dataset struct {
	profiles []Profile
	index    map[string]int
	mode     MatchMode
}

var _ Store = (*Dataset)(nil)

// NewDataset indexes profiles. The slice is copied; later mutation by the
// caller does not affect the dataset.
func NewDataset(profiles []Profile, mode MatchMode) *Dataset {
	ds := &Dataset{
		profiles: append([]Profile(nil), profiles...),
		index:    make(map[string]int),
		mode:     mode,
	}
	for i, p := range ds.profiles {
		for _, key := range ds.keysFor(p) {
			key = normalizeKey(key)
			if key == "" {
				continue
			}
			if _, taken := ds.index[key]; !taken {
				ds.index[key] = i
			}
		}
	}
	return ds
}

func (ds *Dataset) keysFor(p Profile) []string {
	keys := []string{p.User.Username}
	keys = append(keys, p.User.Addresses()...)
	if ds.mode == MatchIdentifiers {
		keys = append(keys, p.User.CanonicalKeys...)
		keys = append(keys, p.Aliases...)
	} else {
		for _, alias := range p.Aliases {
			if !strings.Contains(alias, ":") {
				keys = append(keys, alias)
			}
		}
	}
	return keys
}

// Len returns the number of profiles.
func (ds *Dataset) Len() int {
	return len(ds.profiles)
}

// Profiles returns a copy of every profile in dataset order.
func (ds *Dataset) Profiles() []Profile {
	return append([]Profile(nil), ds.profiles...)
}

// FindProfile looks desc up by the keys its match mode indexes.
func (ds *Dataset) FindProfile(_ context.Context, desc domain.Descriptor) (Profile, bool, error) {
	candidates := []string{desc.Value}
	if ds.mode == MatchIdentifiers {
		candidates = desc.LookupKeys()
	}
	for _, key := range candidates {
		if i, ok := ds.index[normalizeKey(key)]; ok {
			return ds.profiles[i], true, nil
		}
	}
	return Profile{}, false, nil
}

// Leaderboard orders profiles by XP descending and fills in missing ranks.
func (ds *Dataset) Leaderboard(_ context.Context, limit int) ([]Profile, error) {
	out := ds.Profiles()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].User.XPTotal > out[j].User.XPTotal
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		if out[i].User.Rank == nil {
			out[i].User.Rank = domain.Int64(int64(i + 1))
		}
	}
	return out, nil
}

// Search matches query as a case-insensitive substring of names and userkeys.
func (ds *Dataset) Search(_ context.Context, query string, limit int) ([]Profile, error) {
	q := normalizeKey(query)
	if q == "" {
		return nil, nil
	}
	var out []Profile
	for _, p := range ds.profiles {
		if !profileMatches(p, q) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func profileMatches(p Profile, q string) bool {
	fields := []string{p.User.Username, p.User.DisplayName}
	fields = append(fields, p.User.CanonicalKeys...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Feed merges every profile's activities, newest first, without duplicates.
func (ds *Dataset) Feed(_ context.Context, types []domain.ActivityType, limit int) ([]domain.Activity, error) {
	seen := make(map[string]struct{})
	var out []domain.Activity
	for _, p := range ds.profiles {
		for _, a := range p.Activities {
			if !matchesType(a.Type, types) {
				continue
			}
			key := string(a.Type) + "/" + a.ID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, a)
		}
	}
	SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindActivity looks an activity up by type and id across all profiles.
func (ds *Dataset) FindActivity(_ context.Context, kind domain.ActivityType, id string) (domain.Activity, bool, error) {
	for _, p := range ds.profiles {
		for _, a := range p.Activities {
			if a.ID == id && (kind == "" || a.Type == kind) {
				return a, true, nil
			}
		}
	}
	return domain.Activity{}, false, nil
}
