package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/aggregate"
	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/fallback"
	"github.com/cookedzera/RetroQuery/internal/store"
)

// userkeyParam reads the single identity parameter shared by most intents.
func userkeyParam(p Params) (string, error) {
	if v, ok := p.First("userkey", "userKey", "username", "address"); ok {
		return v, nil
	}
	return "", missing("userkey")
}

func timeframeParam(p Params, def aggregate.Timeframe) (aggregate.Timeframe, error) {
	raw, ok := p.String("timeframe")
	if !ok {
		return def, nil
	}
	tf, err := aggregate.ParseTimeframe(raw)
	if err != nil {
		return "", invalid("timeframe", err)
	}
	return tf, nil
}

func (d *Dispatcher) userProfile(ctx context.Context, p Params) (outcome, error) {
	raw, err := userkeyParam(p)
	if err != nil {
		return outcome{}, err
	}
	s, err := d.resolve(ctx, raw)
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		data:    ProfileData{UserRecord: s.user, Identity: s.desc},
		message: fmt.Sprintf("Profile for %s", s.user.Name()),
		real:    s.real(),
	}, nil
}

func (d *Dispatcher) userStats(ctx context.Context, p Params) (outcome, error) {
	raw, err := userkeyParam(p)
	if err != nil {
		return outcome{}, err
	}
	tf, err := timeframeParam(p, aggregate.All)
	if err != nil {
		return outcome{}, err
	}
	s, err := d.resolve(ctx, raw)
	if err != nil {
		return outcome{}, err
	}

	window, isReal, err := d.xpWindow(ctx, s, tf)
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		data:    StatsData{UserRecord: s.user, XP: window},
		message: fmt.Sprintf("%s earned %.0f XP (%s)", s.user.Name(), window.Value, tf),
		real:    isReal,
	}, nil
}

// xpWindow aggregates XP for tf. Weekly samples are fetched only for the
// windows that use them, activities only when samples are missing.
func (d *Dispatcher) xpWindow(ctx context.Context, s subject, tf aggregate.Timeframe) (aggregate.Window, bool, error) {
	now := d.now()
	lifetime := float64(s.user.XPTotal)
	if tf != aggregate.Week && tf != aggregate.Month {
		return aggregate.Aggregate(aggregate.Series{}, tf, lifetime, now), s.real(), nil
	}

	isReal := s.real()
	var series aggregate.Series
	weekly, err := d.weeklyOf(ctx, s)
	switch {
	case err == nil:
		series.Weekly = weekly.Value
		isReal = isReal && weekly.IsRealData()
	case ctx.Err() != nil:
		return aggregate.Window{}, false, ctx.Err()
	default:
		isReal = false
	}

	if len(series.Weekly) == 0 {
		acts, err := d.activitiesOf(ctx, s, domain.DirectionAll, nil, historyLimit)
		switch {
		case err == nil:
			series.Activities = acts.Value
			isReal = isReal && acts.IsRealData()
		case ctx.Err() != nil:
			return aggregate.Window{}, false, ctx.Err()
		default:
			isReal = false
		}
	}
	return aggregate.Aggregate(series, tf, lifetime, now), isReal, nil
}

func comparisonParams(p Params) (string, string, error) {
	keys := p.Strings("userkeys")
	for _, k := range []string{"userkey1", "userkey2"} {
		if v, ok := p.String(k); ok {
			keys = append(keys, v)
		}
	}
	if len(keys) < 2 {
		return "", "", &ParamError{Param: "userkeys", Message: "Two userkeys are required for comparison"}
	}
	return keys[0], keys[1], nil
}

func (d *Dispatcher) userComparison(ctx context.Context, p Params) (outcome, error) {
	a, b, err := comparisonParams(p)
	if err != nil {
		return outcome{}, err
	}
	sa, sb, err := d.resolvePair(ctx, a, b)
	if err != nil {
		return outcome{}, err
	}

	return outcome{
		data: ComparisonData{
			UserA:  sa.user,
			UserB:  sb.user,
			Deltas: compare(sa.user, sb.user),
		},
		message: fmt.Sprintf("Compared %s with %s", sa.user.Name(), sb.user.Name()),
		real:    sa.real() && sb.real(),
	}, nil
}

// compare computes signed deltas; swapping a and b negates every field.
func compare(a, b domain.UserRecord) Deltas {
	d := Deltas{
		Score:   a.Score - b.Score,
		Reviews: a.ReviewCount - b.ReviewCount,
		Vouches: a.VouchCount - b.VouchCount,
	}
	if a.Rank != nil && b.Rank != nil {
		d.Rank = domain.Int64(*b.Rank - *a.Rank)
	}
	return d
}

func (d *Dispatcher) connectedNetworks(ctx context.Context, p Params) (outcome, error) {
	raw, err := userkeyParam(p)
	if err != nil {
		return outcome{}, err
	}
	s, err := d.resolve(ctx, raw)
	if err != nil {
		return outcome{}, err
	}

	networks := linkedNetworks(s.user.CanonicalKeys)
	return outcome{
		data: NetworksData{
			Userkey:  s.user.PrimaryKey(),
			Name:     s.user.Name(),
			Networks: networks,
		},
		message: fmt.Sprintf("%s has %d linked accounts", s.user.Name(), len(networks)),
		real:    s.real(),
	}, nil
}

// linkedNetworks derives linked accounts from userkeys, in key order.
func linkedNetworks(keys []string) []Network {
	out := make([]Network, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		n, ok := parseUserkey(key)
		if !ok || seen[strings.ToLower(key)] {
			continue
		}
		seen[strings.ToLower(key)] = true
		out = append(out, n)
	}
	return out
}

func parseUserkey(key string) (Network, bool) {
	n := Network{Userkey: key}
	switch {
	case strings.HasPrefix(key, "address:"):
		n.Service, n.Identifier = "ethereum", strings.TrimPrefix(key, "address:")
	case strings.HasPrefix(key, "profileId:"):
		n.Service, n.Identifier = "ethos", strings.TrimPrefix(key, "profileId:")
	case strings.HasPrefix(key, "service:"):
		rest := strings.TrimPrefix(key, "service:")
		service, id, ok := strings.Cut(rest, ":")
		if !ok {
			return Network{}, false
		}
		id = strings.TrimPrefix(id, "username:")
		n.Service, n.Identifier = service, id
	default:
		return Network{}, false
	}
	return n, n.Identifier != ""
}

func usersOf(profiles []store.Profile) []domain.UserRecord {
	out := make([]domain.UserRecord, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.User)
	}
	return out
}

// userListTiers runs a list query against every tier.
func (d *Dispatcher) userListTiers(live func(ctx context.Context) ([]domain.UserRecord, error), local func(ctx context.Context, st store.Store) ([]store.Profile, error)) []fallback.Tier[[]domain.UserRecord] {
	var tiers []fallback.Tier[[]domain.UserRecord]
	if d.dir != nil {
		tiers = append(tiers, fallback.Slice(fallback.SourceLive, live))
	}
	for _, ls := range d.localStores() {
		tiers = append(tiers, fallback.Slice(ls.source, func(ctx context.Context) ([]domain.UserRecord, error) {
			profiles, err := local(ctx, ls.store)
			if err != nil {
				return nil, err
			}
			return usersOf(profiles), nil
		}))
	}
	return tiers
}

func (d *Dispatcher) leaderboard(ctx context.Context, p Params) (outcome, error) {
	limit := clampLimit(p.Int("limit", defaultListLimit), defaultListLimit, maxListLimit)
	res, err := fallback.Run(ctx, d.logger, d.userListTiers(
		func(ctx context.Context) ([]domain.UserRecord, error) { return d.dir.Leaderboard(ctx, limit) },
		func(ctx context.Context, st store.Store) ([]store.Profile, error) { return st.Leaderboard(ctx, limit) },
	)...)
	if err != nil {
		return outcome{}, listError(ctx, err, "No leaderboard data available")
	}
	users := res.Value
	if len(users) > limit {
		users = users[:limit]
	}
	return outcome{
		data:    users,
		message: fmt.Sprintf("Top %d users by XP", len(users)),
		real:    res.IsRealData(),
	}, nil
}

func (d *Dispatcher) searchUsers(ctx context.Context, p Params) (outcome, error) {
	query, ok := p.First("query", "q")
	if !ok {
		return outcome{}, missing("query")
	}
	limit := clampLimit(p.Int("limit", defaultListLimit), defaultListLimit, maxListLimit)
	res, err := fallback.Run(ctx, d.logger, d.userListTiers(
		func(ctx context.Context) ([]domain.UserRecord, error) { return d.dir.Search(ctx, query, limit) },
		func(ctx context.Context, st store.Store) ([]store.Profile, error) { return st.Search(ctx, query, limit) },
	)...)
	if err != nil {
		return outcome{}, listError(ctx, err, fmt.Sprintf("No users match %q", query))
	}
	return outcome{
		data:    res.Value,
		message: fmt.Sprintf("Found %d users matching %q", len(res.Value), query),
		real:    res.IsRealData(),
	}, nil
}

// listError turns an exhausted list query into a not-found with msg.
func listError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		err = &notFoundError{msg: msg}
	}
	return orContext(ctx, err)
}

// orContext prefers the context's error once the request is over.
func orContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
