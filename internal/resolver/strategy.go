package resolver

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// Directory is the subset of the reputation directory the chain probes.
type Directory interface {
	UsersByAddress(ctx context.Context, addresses ...string) ([]domain.UserRecord, error)
	ResolveENS(ctx context.Context, name string) (string, error)
	UsersByX(ctx context.Context, usernames ...string) ([]domain.UserRecord, error)
	UsersByFarcasterID(ctx context.Context, ids ...string) ([]domain.UserRecord, error)
	UsersByFarcasterUsername(ctx context.Context, usernames ...string) ([]domain.UserRecord, error)
	UsersByDiscord(ctx context.Context, ids ...string) ([]domain.UserRecord, error)
	UsersByTelegram(ctx context.Context, ids ...string) ([]domain.UserRecord, error)
	UsersByProfileID(ctx context.Context, ids ...int64) ([]domain.UserRecord, error)
	UsersByID(ctx context.Context, ids ...int64) ([]domain.UserRecord, error)
}

// Strategy is one lookup bound to one directory endpoint shape.
type Strategy interface {
	Name() string
	Lookup(ctx context.Context, value string) (domain.UserRecord, error)
}

// errNotApplicable marks input a strategy cannot express, e.g. a username
// handed to a numeric-id endpoint. It is treated like any other miss.
var errNotApplicable = errors.New("input not applicable to strategy")

// Strategy names, also used as metric labels.
const (
	StrategyAddress           = "address"
	StrategyENS               = "ens"
	StrategyTwitter           = "x_username"
	StrategyFarcasterUsername = "farcaster_username"
	StrategyFarcasterID       = "farcaster_id"
	StrategyDiscord           = "discord_id"
	StrategyTelegram          = "telegram_id"
	StrategyProfileID         = "profile_id"
	StrategyUserID            = "user_id"
)

type lookupFunc func(ctx context.Context, value string) ([]domain.UserRecord, error)

type lookupStrategy struct {
	name   string
	lookup lookupFunc
}

func (s lookupStrategy) Name() string { return s.name }

// Lookup returns the first record of the directory response; its ordering is
// authoritative and never re-ranked here.
func (s lookupStrategy) Lookup(ctx context.Context, value string) (domain.UserRecord, error) {
	records, err := s.lookup(ctx, value)
	if err != nil {
		return domain.UserRecord{}, err
	}
	if len(records) == 0 {
		return domain.UserRecord{}, domain.ErrNotFound
	}
	return records[0], nil
}

func strategies(dir Directory) map[string]Strategy {
	handle := func(v string) string { return strings.TrimPrefix(v, "@") }
	numeric := func(fn func(context.Context, ...int64) ([]domain.UserRecord, error)) lookupFunc {
		return func(ctx context.Context, v string) ([]domain.UserRecord, error) {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				return nil, errNotApplicable
			}
			return fn(ctx, id)
		}
	}
	digits := func(fn func(context.Context, ...string) ([]domain.UserRecord, error)) lookupFunc {
		return func(ctx context.Context, v string) ([]domain.UserRecord, error) {
			if !domain.IsDigits(v) {
				return nil, errNotApplicable
			}
			return fn(ctx, v)
		}
	}

	all := []lookupStrategy{
		{name: StrategyAddress, lookup: func(ctx context.Context, v string) ([]domain.UserRecord, error) {
			return dir.UsersByAddress(ctx, v)
		}},
		{name: StrategyENS, lookup: func(ctx context.Context, v string) ([]domain.UserRecord, error) {
			addr, err := dir.ResolveENS(ctx, v)
			if err != nil {
				return nil, err
			}
			return dir.UsersByAddress(ctx, addr)
		}},
		{name: StrategyTwitter, lookup: func(ctx context.Context, v string) ([]domain.UserRecord, error) {
			return dir.UsersByX(ctx, handle(v))
		}},
		{name: StrategyFarcasterUsername, lookup: func(ctx context.Context, v string) ([]domain.UserRecord, error) {
			return dir.UsersByFarcasterUsername(ctx, handle(v))
		}},
		{name: StrategyFarcasterID, lookup: digits(dir.UsersByFarcasterID)},
		{name: StrategyDiscord, lookup: digits(dir.UsersByDiscord)},
		{name: StrategyTelegram, lookup: digits(dir.UsersByTelegram)},
		{name: StrategyProfileID, lookup: numeric(dir.UsersByProfileID)},
		{name: StrategyUserID, lookup: numeric(dir.UsersByID)},
	}

	out := make(map[string]Strategy, len(all))
	for _, s := range all {
		out[s.name] = s
	}
	return out
}
