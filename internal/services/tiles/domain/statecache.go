package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/wear-tiles/internal/platform/hotcache"
)

var (
	// ErrFavoritesSourceNotConfigured indicates the cache was built without a source.
	ErrFavoritesSourceNotConfigured = errors.New("favorites source is not configured")
	// ErrFavoritesUnavailable indicates the favorites watch failed or ended.
	ErrFavoritesUnavailable = errors.New("favorites unavailable")
)

// FavoritesSource is the external favorites store.
//
// WatchFavorites emits the current list right away and again after every
// change until ctx is cancelled. Closing the channel early ends the watch.
type FavoritesSource interface {
	WatchFavorites(ctx context.Context) (<-chan []Contact, error)
	UpdateFavorites(ctx context.Context, favorites []Contact) error
}

// StateCacheConfig tunes the state cache.
type StateCacheConfig struct {
	// DisplayLimit caps the number of contacts kept in the state.
	DisplayLimit int
	// Grace keeps the favorites watch alive after the last reader leaves.
	Grace time.Duration
	// Schedule overrides the teardown timer, for tests.
	Schedule hotcache.Scheduler
	// Logf receives watch and default-seeding diagnostics.
	Logf func(string, ...any)
}

// StateCache holds the latest tile state derived from the favorites source.
type StateCache struct {
	source FavoritesSource
	limit  int
	logf   func(string, ...any)
	hot    *hotcache.Cache[TileState]
}

// NewStateCache builds a cache that watches source only while it has readers.
func NewStateCache(source FavoritesSource, cfg StateCacheConfig) (*StateCache, error) {
	if source == nil {
		return nil, ErrFavoritesSourceNotConfigured
	}
	limit := cfg.DisplayLimit
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	cache := &StateCache{source: source, limit: limit, logf: logf}
	hot, err := hotcache.New(cache.watch, hotcache.Options{
		Grace:    cfg.Grace,
		Schedule: cfg.Schedule,
		Logf:     logf,
	})
	if err != nil {
		return nil, err
	}
	cache.hot = hot
	return cache, nil
}

func (c *StateCache) watch(ctx context.Context, publish func(TileState)) error {
	updates, err := c.source.WatchFavorites(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFavoritesUnavailable, err)
	}
	var (
		last      TileState
		published bool
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case favorites, ok := <-updates:
			if !ok {
				return fmt.Errorf("%w: watch closed", ErrFavoritesUnavailable)
			}
			state := NewTileState(favorites, c.limit)
			if published && state.Equal(last) {
				continue
			}
			last, published = state, true
			publish(state)
		}
	}
}

// Latest returns the current state, waiting for the first value when the
// favorites watch has just started.
func (c *StateCache) Latest(ctx context.Context) (TileState, error) {
	lease := c.hot.Acquire()
	defer lease.Release()

	state, err := lease.Latest(ctx)
	if err != nil {
		return TileState{}, err
	}
	return state.Clone(), nil
}

// EnsureNonEmpty writes defaults once when the state has no contacts and
// returns the next state the source emits. A failed write is logged and the
// empty state returned.
func (c *StateCache) EnsureNonEmpty(ctx context.Context, defaults []Contact) (TileState, error) {
	lease := c.hot.Acquire()
	defer lease.Release()

	state, version, err := lease.Next(ctx, 0)
	if err != nil {
		return TileState{}, err
	}
	if !state.Empty() || len(defaults) == 0 {
		return state.Clone(), nil
	}
	if err := c.source.UpdateFavorites(ctx, cloneContacts(defaults)); err != nil {
		c.logf("write default favorites: %v", err)
		return state.Clone(), nil
	}
	next, _, err := lease.Next(ctx, version)
	if err != nil {
		return TileState{}, err
	}
	return next.Clone(), nil
}

// Subscribe holds the favorites watch open until the subscription is closed.
func (c *StateCache) Subscribe() *Subscription {
	return &Subscription{lease: c.hot.Acquire()}
}

// Watching reports whether the favorites watch is running.
func (c *StateCache) Watching() bool {
	return c.hot.Active()
}

// Subscription streams state changes to one consumer.
type Subscription struct {
	lease *hotcache.Lease[TileState]
}

// Next waits for a state newer than after. Pass zero for the current state.
func (s *Subscription) Next(ctx context.Context, after uint64) (TileState, uint64, error) {
	state, version, err := s.lease.Next(ctx, after)
	if err != nil {
		return TileState{}, version, err
	}
	return state.Clone(), version, nil
}

// Close releases the subscription.
func (s *Subscription) Close() {
	s.lease.Release()
}
