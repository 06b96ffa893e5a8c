// Package resolver turns an identity descriptor into a directory user record
// by probing lookup strategies in a fixed priority order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/metrics"
)

// explicitPlans maps each classified kind to its single strategy.
var explicitPlans = map[domain.Kind][]string{
	domain.KindAddress:           {StrategyAddress},
	domain.KindENSName:           {StrategyENS},
	domain.KindTwitterUsername:   {StrategyTwitter},
	domain.KindFarcasterUsername: {StrategyFarcasterUsername},
	domain.KindFarcasterID:       {StrategyFarcasterID},
	domain.KindDiscordID:         {StrategyDiscord},
	domain.KindTelegramID:        {StrategyTelegram},
	domain.KindProfileID:         {StrategyProfileID},
	domain.KindUserID:            {StrategyUserID},
}

// Most queries are social handles, so X goes first.
var unknownPlan = []string{StrategyTwitter, StrategyFarcasterUsername, StrategyAddress, StrategyProfileID}

var numericTail = []string{StrategyFarcasterID, StrategyDiscord, StrategyTelegram}

// Chain resolves descriptors against the directory. It holds no per-request
// state and is safe for concurrent use.
type Chain struct {
	strategies map[string]Strategy
	logger     *slog.Logger
}

// NewChain binds the lookup strategies to dir.
func NewChain(dir Directory, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Chain{
		strategies: strategies(dir),
		logger:     logger.With("component", "resolver"),
	}
}

// Plan lists the strategy names Resolve will try for desc, in order.
func Plan(desc domain.Descriptor) []string {
	if plan, ok := explicitPlans[desc.Kind]; ok {
		return plan
	}
	plan := append([]string(nil), unknownPlan...)
	if desc.Numeric() {
		plan = append(plan, numericTail...)
	}
	return plan
}

// Resolve tries each planned strategy sequentially and returns the first hit.
// A strategy failure of any kind only moves the chain on to the next probe.
// When every strategy misses, the error is domain.ErrNotFound.
func (c *Chain) Resolve(ctx context.Context, desc domain.Descriptor) (domain.UserRecord, error) {
	if desc.Value == "" {
		return domain.UserRecord{}, domain.ErrNotFound
	}

	for _, name := range Plan(desc) {
		if err := ctx.Err(); err != nil {
			return domain.UserRecord{}, errors.Join(domain.ErrNotFound, err)
		}

		strategy, ok := c.strategies[name]
		if !ok {
			continue
		}

		record, err := probe(ctx, strategy, desc.Value)
		metrics.RecordStrategyAttempt(name, err == nil)
		if err != nil {
			c.logger.Debug("strategy missed",
				"strategy", name,
				"kind", desc.Kind,
				"value", desc.Value,
				"error", err,
			)
			continue
		}

		c.logger.Debug("identity resolved",
			"strategy", name,
			"kind", desc.Kind,
			"userkey", record.PrimaryKey(),
		)
		return record, nil
	}

	return domain.UserRecord{}, domain.ErrNotFound
}

func probe(ctx context.Context, s Strategy, value string) (rec domain.UserRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Lookup(ctx, value)
}
