// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package recommend

import (
	"context"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the watch-history circuit breaker.
type BreakerSettings struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker. Default: 5.
	FailureThreshold uint32
}

// GuardedHistory wraps a WatchHistoryProvider with a circuit breaker so a
// degraded watch-history backend fails fast instead of stalling every run.
type GuardedHistory struct {
	inner WatchHistoryProvider
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// NewGuardedHistory wraps the provider. Uses gobreaker v2's generic API
// with interface{} so one breaker covers every provider method.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGuardedHistory(inner WatchHistoryProvider, settings BreakerSettings, logger zerolog.Logger) *GuardedHistory {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	log := logger.With().Str("component", "history-breaker").Logger()

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name: "watch-history",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return &GuardedHistory{inner: inner, cb: cb}
}

// State returns the breaker state as a string for monitoring.
func (g *GuardedHistory) State() string {
	return g.cb.State().String()
}

// GetWatchSignals implements WatchHistoryProvider.
func (g *GuardedHistory) GetWatchSignals(ctx context.Context, userID int, mediaType MediaType, limit int) ([]WatchSignal, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.GetWatchSignals(ctx, userID, mediaType, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]WatchSignal), nil
}

// GetFavoriteCount implements WatchHistoryProvider.
func (g *GuardedHistory) GetFavoriteCount(ctx context.Context, userID int, mediaType MediaType) (int, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.GetFavoriteCount(ctx, userID, mediaType)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// GetWatchedItemIDs implements WatchHistoryProvider.
func (g *GuardedHistory) GetWatchedItemIDs(ctx context.Context, userID int, mediaType MediaType) ([]int, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.GetWatchedItemIDs(ctx, userID, mediaType)
	})
	if err != nil {
		return nil, err
	}
	return v.([]int), nil
}

// ListUserIDs implements WatchHistoryProvider.
func (g *GuardedHistory) ListUserIDs(ctx context.Context) ([]int, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.ListUserIDs(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]int), nil
}
