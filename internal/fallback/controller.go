// Package fallback runs a data-producing operation against decreasing tiers of
// data authenticity and stamps the result with the tier that produced it.
package fallback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/metrics"
)

// Source names a degradation tier.
type Source string

// Tiers, from most to least authoritative.
const (
	SourceLive   Source = "live"
	SourceMock   Source = "mock"
	SourceStatic Source = "static"
)

// Tier is one way of producing a T. Fetch returns ok=false when it has
// nothing to offer; errors are treated the same way.
type Tier[T any] struct {
	Source Source
	Fetch  func(ctx context.Context) (value T, ok bool, err error)
}

// Result carries a value and the tier that produced it.
type Result[T any] struct {
	Value  T
	Source Source
}

// IsRealData reports whether the value came from the live directory.
func (r Result[T]) IsRealData() bool {
	return r.Source == SourceLive
}

// Run tries tiers in order and returns the first non-empty result. Tier
// failures, including panics, never escape: they only cause fallthrough. When
// every tier is empty the error is domain.ErrNotFound.
func Run[T any](ctx context.Context, logger *slog.Logger, tiers ...Tier[T]) (Result[T], error) {
	for _, tier := range tiers {
		if tier.Fetch == nil {
			continue
		}

		value, ok, err := fetch(ctx, tier)
		if err != nil {
			if logger != nil {
				logger.Debug("tier failed", "tier", tier.Source, "error", err)
			}
			continue
		}
		if !ok {
			continue
		}

		metrics.RecordTier(string(tier.Source))
		return Result[T]{Value: value, Source: tier.Source}, nil
	}

	metrics.RecordTier("none")
	return Result[T]{}, domain.ErrNotFound
}

func fetch[T any](ctx context.Context, tier Tier[T]) (value T, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, ok, err = zero, false, fmt.Errorf("%s tier panicked: %v", tier.Source, r)
		}
	}()
	return tier.Fetch(ctx)
}

// Slice adapts a list-producing function into a tier that is empty when the
// list is.
func Slice[E any](source Source, fn func(ctx context.Context) ([]E, error)) Tier[[]E] {
	if fn == nil {
		return Tier[[]E]{Source: source}
	}
	return Tier[[]E]{
		Source: source,
		Fetch: func(ctx context.Context) ([]E, bool, error) {
			items, err := fn(ctx)
			if err != nil {
				return nil, false, err
			}
			return items, len(items) > 0, nil
		},
	}
}
