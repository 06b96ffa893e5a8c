package engine

import (
	"context"
	"fmt"

	"github.com/cookedzera/RetroQuery/internal/aggregate"
	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/fallback"
	"github.com/cookedzera/RetroQuery/internal/store"
)

func activityTypesParam(p Params) ([]domain.ActivityType, error) {
	raw := p.Strings("activityType")
	if len(raw) == 0 {
		raw = p.Strings("activityTypes")
	}
	out := make([]domain.ActivityType, 0, len(raw))
	for _, r := range raw {
		t, err := domain.ParseActivityType(r)
		if err != nil {
			return nil, invalid("activityType", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func singleTypeParam(p Params, def domain.ActivityType) (domain.ActivityType, error) {
	raw, ok := p.String("activityType")
	if !ok {
		return def, nil
	}
	t, err := domain.ParseActivityType(raw)
	if err != nil {
		return "", invalid("activityType", err)
	}
	return t, nil
}

// historyOf loads activities for a resolved subject. When every tier is
// exhausted the list is empty and not real.
func (d *Dispatcher) historyOf(ctx context.Context, s subject, dir domain.Direction, types []domain.ActivityType, limit int) ([]domain.Activity, bool, error) {
	res, err := d.activitiesOf(ctx, s, dir, types, limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return []domain.Activity{}, false, nil
	}
	acts := res.Value
	if acts == nil {
		acts = []domain.Activity{}
	}
	return acts, s.real() && res.IsRealData(), nil
}

func (d *Dispatcher) userReviews(ctx context.Context, p Params) (outcome, error) {
	raw, err := userkeyParam(p)
	if err != nil {
		return outcome{}, err
	}
	dirRaw, _ := p.String("direction")
	direction := domain.ParseDirection(dirRaw, domain.DirectionReceived)
	limit := clampLimit(p.Int("limit", defaultListLimit), defaultListLimit, maxListLimit)

	s, err := d.resolve(ctx, raw)
	if err != nil {
		return outcome{}, err
	}
	reviews, isReal, err := d.historyOf(ctx, s, direction, []domain.ActivityType{domain.ActivityReview}, limit)
	if err != nil {
		return outcome{}, err
	}

	var summary ReviewSummary
	for _, r := range reviews {
		switch {
		case r.Score > 0:
			summary.Positive++
		case r.Score < 0:
			summary.Negative++
		default:
			summary.Neutral++
		}
	}
	return outcome{
		data: ReviewsData{
			Userkey:   s.user.PrimaryKey(),
			Name:      s.user.Name(),
			Direction: direction,
			Summary:   summary,
			Reviews:   reviews,
		},
		message: fmt.Sprintf("%d reviews %s by %s", len(reviews), direction, s.user.Name()),
		real:    isReal,
	}, nil
}

func (d *Dispatcher) userActivities(ctx context.Context, p Params) (outcome, error) {
	raw, err := userkeyParam(p)
	if err != nil {
		return outcome{}, err
	}
	types, err := activityTypesParam(p)
	if err != nil {
		return outcome{}, err
	}
	dirRaw, _ := p.String("direction")
	direction := domain.ParseDirection(dirRaw, domain.DirectionAll)
	limit := clampLimit(p.Int("limit", defaultListLimit), defaultListLimit, maxListLimit)

	s, err := d.resolve(ctx, raw)
	if err != nil {
		return outcome{}, err
	}
	acts, isReal, err := d.historyOf(ctx, s, direction, types, limit)
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		data: ActivitiesData{
			Userkey:    s.user.PrimaryKey(),
			Direction:  direction,
			Types:      types,
			Activities: acts,
		},
		message: fmt.Sprintf("%d activities for %s", len(acts), s.user.Name()),
		real:    isReal,
	}, nil
}

func (d *Dispatcher) activityHistory(ctx context.Context, p Params) (outcome, error) {
	raw, err := userkeyParam(p)
	if err != nil {
		return outcome{}, err
	}
	tf, err := timeframeParam(p, aggregate.Month)
	if err != nil {
		return outcome{}, err
	}
	limit := clampLimit(p.Int("limit", historyLimit), historyLimit, maxListLimit)

	s, err := d.resolve(ctx, raw)
	if err != nil {
		return outcome{}, err
	}
	acts, isReal, err := d.historyOf(ctx, s, domain.DirectionAll, nil, limit)
	if err != nil {
		return outcome{}, err
	}

	within := aggregate.Within(acts, tf, d.now())
	return outcome{
		data: HistoryData{
			Userkey:    s.user.PrimaryKey(),
			Timeframe:  tf,
			Activities: within,
			Buckets:    aggregate.Group(within, tf),
		},
		message: fmt.Sprintf("%d activities for %s in the last %s", len(within), s.user.Name(), tf),
		real:    isReal,
	}, nil
}

func (d *Dispatcher) reputationTrend(ctx context.Context, p Params) (outcome, error) {
	raw, err := userkeyParam(p)
	if err != nil {
		return outcome{}, err
	}
	tf, err := timeframeParam(p, aggregate.Month)
	if err != nil {
		return outcome{}, err
	}
	s, err := d.resolve(ctx, raw)
	if err != nil {
		return outcome{}, err
	}

	now := d.now()
	isReal := s.real()
	var series aggregate.Series
	weekly, err := d.weeklyOf(ctx, s)
	switch {
	case err == nil:
		series.Weekly = weekly.Value
		isReal = isReal && weekly.IsRealData()
	case ctx.Err() != nil:
		return outcome{}, ctx.Err()
	default:
		isReal = false
	}
	acts, actsReal, err := d.historyOf(ctx, s, domain.DirectionReceived, nil, historyLimit)
	if err != nil {
		return outcome{}, err
	}
	series.Activities = acts
	isReal = isReal && actsReal

	window := aggregate.Aggregate(series, tf, float64(s.user.XPTotal), now)
	samples := series.Weekly
	if samples == nil {
		samples = []domain.WeeklySample{}
	}
	return outcome{
		data: TrendData{
			Userkey: s.user.PrimaryKey(),
			Score:   s.user.Score,
			Window:  window,
			Weekly:  samples,
			Buckets: aggregate.Group(aggregate.Within(acts, tf, now), tf),
		},
		message: fmt.Sprintf("Reputation trend for %s (%s)", s.user.Name(), tf),
		real:    isReal,
	}, nil
}

func (d *Dispatcher) globalFeed(ctx context.Context, p Params) (outcome, error) {
	types, err := activityTypesParam(p)
	if err != nil {
		return outcome{}, err
	}
	limit := clampLimit(p.Int("limit", defaultListLimit), defaultListLimit, maxListLimit)

	var tiers []fallback.Tier[[]domain.Activity]
	if d.dir != nil {
		tiers = append(tiers, fallback.Slice(fallback.SourceLive, func(ctx context.Context) ([]domain.Activity, error) {
			return d.dir.Feed(ctx, types, limit)
		}))
	}
	for _, ls := range d.localStores() {
		tiers = append(tiers, fallback.Slice(ls.source, func(ctx context.Context) ([]domain.Activity, error) {
			return ls.store.Feed(ctx, types, limit)
		}))
	}

	res, err := fallback.Run(ctx, d.logger, tiers...)
	if err != nil {
		return outcome{}, listError(ctx, err, "No recent activity found")
	}
	return outcome{
		data:    res.Value,
		message: fmt.Sprintf("%d recent activities", len(res.Value)),
		real:    res.IsRealData(),
	}, nil
}

// activityTiers finds one activity in every tier.
func (d *Dispatcher) activityTiers(kind domain.ActivityType, id string) []fallback.Tier[domain.Activity] {
	var tiers []fallback.Tier[domain.Activity]
	if d.dir != nil {
		tiers = append(tiers, fallback.Tier[domain.Activity]{
			Source: fallback.SourceLive,
			Fetch: func(ctx context.Context) (domain.Activity, bool, error) {
				a, err := d.dir.Activity(ctx, kind, id)
				if err != nil {
					return domain.Activity{}, false, err
				}
				return a, true, nil
			},
		})
	}
	for _, ls := range d.localStores() {
		tiers = append(tiers, fallback.Tier[domain.Activity]{
			Source: ls.source,
			Fetch: func(ctx context.Context) (domain.Activity, bool, error) {
				return ls.store.FindActivity(ctx, kind, id)
			},
		})
	}
	return tiers
}

func (d *Dispatcher) activityDetail(ctx context.Context, p Params) (outcome, error) {
	id, ok := p.First("activityId", "id")
	if !ok {
		return outcome{}, missing("activityId")
	}
	kind, err := singleTypeParam(p, domain.ActivityReview)
	if err != nil {
		return outcome{}, err
	}

	res, err := fallback.Run(ctx, d.logger, d.activityTiers(kind, id)...)
	if err != nil {
		return outcome{}, orContext(ctx, activityNotFound(kind, id))
	}
	a := res.Value
	return outcome{
		data:    a,
		message: fmt.Sprintf("%s %s by %s about %s", kind, id, actorName(a.Author), actorName(a.Subject)),
		real:    res.IsRealData(),
	}, nil
}

func (d *Dispatcher) activityVotes(ctx context.Context, p Params) (outcome, error) {
	id, ok := p.First("activityId", "id")
	if !ok {
		return outcome{}, missing("activityId")
	}
	kind, err := singleTypeParam(p, domain.ActivityReview)
	if err != nil {
		return outcome{}, err
	}

	var tiers []fallback.Tier[domain.VoteSummary]
	if d.dir != nil {
		tiers = append(tiers, fallback.Tier[domain.VoteSummary]{
			Source: fallback.SourceLive,
			Fetch: func(ctx context.Context) (domain.VoteSummary, bool, error) {
				v, err := d.dir.Votes(ctx, kind, id)
				if err != nil {
					return domain.VoteSummary{}, false, err
				}
				return v, true, nil
			},
		})
	}
	for _, ls := range d.localStores() {
		tiers = append(tiers, fallback.Tier[domain.VoteSummary]{
			Source: ls.source,
			Fetch: func(ctx context.Context) (domain.VoteSummary, bool, error) {
				a, ok, err := ls.store.FindActivity(ctx, kind, id)
				return a.Votes, ok, err
			},
		})
	}

	res, err := fallback.Run(ctx, d.logger, tiers...)
	if err != nil {
		return outcome{}, orContext(ctx, activityNotFound(kind, id))
	}
	v := res.Value
	return outcome{
		data: VotesData{
			ActivityID:   id,
			ActivityType: kind,
			VoteSummary:  v,
			Net:          v.Net(),
		},
		message: fmt.Sprintf("%d upvotes and %d downvotes on %s %s", v.Upvotes, v.Downvotes, kind, id),
		real:    res.IsRealData(),
	}, nil
}

func betweenParams(p Params) (string, string, error) {
	author, okA := p.First("author", "from")
	subj, okS := p.First("subject", "to")
	if okA && okS {
		return author, subj, nil
	}
	if keys := p.Strings("userkeys"); len(keys) >= 2 {
		return keys[0], keys[1], nil
	}
	if !okA {
		return "", "", missing("author")
	}
	return "", "", missing("subject")
}

func (d *Dispatcher) reviewBetween(ctx context.Context, p Params) (outcome, error) {
	authorRaw, subjectRaw, err := betweenParams(p)
	if err != nil {
		return outcome{}, err
	}
	author, subj, err := d.resolvePair(ctx, authorRaw, subjectRaw)
	if err != nil {
		return outcome{}, err
	}

	given, isReal, err := d.historyOf(ctx, author, domain.DirectionGiven, []domain.ActivityType{domain.ActivityReview}, maxListLimit)
	if err != nil {
		return outcome{}, err
	}
	reviews := []domain.Activity{}
	for _, a := range given {
		if aboutAny(a, subj.user.CanonicalKeys) {
			reviews = append(reviews, a)
		}
	}
	store.SortNewestFirst(reviews)

	msg := fmt.Sprintf("%s has not reviewed %s", author.user.Name(), subj.user.Name())
	if len(reviews) > 0 {
		msg = fmt.Sprintf("%s reviewed %s %d times", author.user.Name(), subj.user.Name(), len(reviews))
	}
	return outcome{
		data: BetweenData{
			Author:  author.user,
			Subject: subj.user,
			Found:   len(reviews) > 0,
			Reviews: reviews,
		},
		message: msg,
		real:    isReal && subj.real(),
	}, nil
}

func aboutAny(a domain.Activity, keys []string) bool {
	for _, k := range keys {
		if a.InvolvesUserkey(k, domain.DirectionReceived) {
			return true
		}
	}
	return false
}

func actorName(a domain.ActorRef) string {
	switch {
	case a.Name != "":
		return a.Name
	case a.Username != "":
		return a.Username
	default:
		return a.Userkey
	}
}
