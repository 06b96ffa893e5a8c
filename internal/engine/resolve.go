package engine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/cookedzera/RetroQuery/internal/directory"
	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/fallback"
	"github.com/cookedzera/RetroQuery/internal/identity"
	"github.com/cookedzera/RetroQuery/internal/store"
)

// subject is a resolved identity and the tier that knew it.
type subject struct {
	raw    string
	desc   domain.Descriptor
	user   domain.UserRecord
	local  store.Profile
	source fallback.Source
}

func (s subject) real() bool { return s.source == fallback.SourceLive }

type localStore struct {
	source fallback.Source
	store  store.Store
}

func (d *Dispatcher) localStores() []localStore {
	var out []localStore
	if d.mock != nil {
		out = append(out, localStore{fallback.SourceMock, d.mock})
	}
	if d.static != nil {
		out = append(out, localStore{fallback.SourceStatic, d.static})
	}
	return out
}

func tierRank(s fallback.Source) int {
	switch s {
	case fallback.SourceLive:
		return 0
	case fallback.SourceMock:
		return 1
	default:
		return 2
	}
}

// resolve normalizes raw and finds it in the first tier that knows it.
func (d *Dispatcher) resolve(ctx context.Context, raw string) (subject, error) {
	desc := identity.Normalize(raw)

	var tiers []fallback.Tier[subject]
	if d.chain != nil {
		tiers = append(tiers, fallback.Tier[subject]{
			Source: fallback.SourceLive,
			Fetch: func(ctx context.Context) (subject, bool, error) {
				rec, err := d.chain.Resolve(ctx, desc)
				if err != nil {
					return subject{}, false, err
				}
				return subject{user: rec}, true, nil
			},
		})
	}
	for _, ls := range d.localStores() {
		tiers = append(tiers, fallback.Tier[subject]{
			Source: ls.source,
			Fetch: func(ctx context.Context) (subject, bool, error) {
				p, ok, err := ls.store.FindProfile(ctx, desc)
				if err != nil || !ok {
					return subject{}, false, err
				}
				return subject{user: p.User, local: p}, true, nil
			},
		})
	}

	res, err := fallback.Run(ctx, d.logger, tiers...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return subject{}, ctxErr
		}
		return subject{}, profileNotFound(raw)
	}

	s := res.Value
	s.raw, s.desc, s.source = raw, desc, res.Source
	d.logger.Debug("identity resolved", "input", raw, "kind", desc.Kind, "tier", res.Source)
	return s, nil
}

// resolvePair resolves two identities concurrently. Both must succeed.
func (d *Dispatcher) resolvePair(ctx context.Context, a, b string) (subject, subject, error) {
	var sa, sb subject
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sa, err = d.resolve(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		sb, err = d.resolve(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return subject{}, subject{}, err
	}
	return sa, sb, nil
}

// historyTiers builds the tiers for data about an already resolved subject.
// Reads start at the tier the subject came from, so a mock identity never
// mixes with live history. A live call that succeeds with an empty answer is
// still an answer.
func historyTiers[T any](d *Dispatcher, s subject, live func(ctx context.Context, userkey string) (T, error), local func(p store.Profile) T) []fallback.Tier[T] {
	var tiers []fallback.Tier[T]
	if s.real() && d.dir != nil && s.user.PrimaryKey() != "" {
		tiers = append(tiers, fallback.Tier[T]{
			Source: fallback.SourceLive,
			Fetch: func(ctx context.Context) (T, bool, error) {
				v, err := live(ctx, s.user.PrimaryKey())
				if errors.Is(err, directory.ErrNotFound) {
					var zero T
					return zero, true, nil
				}
				return v, err == nil, err
			},
		})
	}
	for _, ls := range d.localStores() {
		if tierRank(ls.source) < tierRank(s.source) {
			continue
		}
		tiers = append(tiers, fallback.Tier[T]{
			Source: ls.source,
			Fetch: func(ctx context.Context) (T, bool, error) {
				var zero T
				p := s.local
				if ls.source != s.source {
					found, ok, err := ls.store.FindProfile(ctx, s.desc)
					if err != nil || !ok {
						return zero, false, err
					}
					p = found
				}
				return local(p), true, nil
			},
		})
	}
	return tiers
}

func (d *Dispatcher) activitiesOf(ctx context.Context, s subject, dir domain.Direction, types []domain.ActivityType, limit int) (fallback.Result[[]domain.Activity], error) {
	tiers := historyTiers(d, s,
		func(ctx context.Context, userkey string) ([]domain.Activity, error) {
			return d.dir.Activities(ctx, directory.ActivityQuery{
				Userkey:   userkey,
				Direction: dir,
				Types:     types,
				Limit:     limit,
			})
		},
		func(p store.Profile) []domain.Activity {
			return p.ActivitiesFor(dir, types, limit)
		},
	)
	return fallback.Run(ctx, d.logger, tiers...)
}

func (d *Dispatcher) weeklyOf(ctx context.Context, s subject) (fallback.Result[[]domain.WeeklySample], error) {
	tiers := historyTiers(d, s,
		func(ctx context.Context, userkey string) ([]domain.WeeklySample, error) {
			return d.dir.WeeklyXP(ctx, userkey)
		},
		func(p store.Profile) []domain.WeeklySample {
			return p.WeeklyXP
		},
	)
	return fallback.Run(ctx, d.logger, tiers...)
}
