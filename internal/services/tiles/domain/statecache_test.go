package domain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewStateCacheRequiresSource(t *testing.T) {
	if _, err := NewStateCache(nil, StateCacheConfig{}); !errors.Is(err, ErrFavoritesSourceNotConfigured) {
		t.Fatalf("expected ErrFavoritesSourceNotConfigured, got %v", err)
	}
}

func TestLatestReturnsFavoritesInOrder(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a", "b")...)
	cache := newTestStateCache(t, source, 4)

	state, err := cache.Latest(testContext(t))
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got := contactIDs(state.Contacts); !equalStrings(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestLatestTruncatesToDisplayLimit(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a", "b", "c", "d", "e")...)
	cache := newTestStateCache(t, source, 4)

	state, err := cache.Latest(testContext(t))
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got := contactIDs(state.Contacts); !equalStrings(got, []string{"a", "b", "c", "d"}) {
		t.Fatalf("expected first four contacts, got %v", got)
	}
}

func TestLatestReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a")...)
	cache := newTestStateCache(t, source, 4)

	first, err := cache.Latest(testContext(t))
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	first.Contacts[0].Name = "mutated"

	second, err := cache.Latest(testContext(t))
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if second.Contacts[0].Name != "Contact a" {
		t.Fatalf("expected cached state to be unaffected, got %q", second.Contacts[0].Name)
	}
}

func TestLatestSharesOneWatchAcrossCalls(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a")...)
	cache := newTestStateCache(t, source, 4)

	for range 3 {
		if _, err := cache.Latest(testContext(t)); err != nil {
			t.Fatalf("latest: %v", err)
		}
	}
	if got := source.watchCount(); got != 1 {
		t.Fatalf("expected one favorites watch, got %d", got)
	}
	if !cache.Watching() {
		t.Fatal("expected watch to stay open during grace period")
	}
}

func TestLatestSeesUpdates(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a")...)
	cache := newTestStateCache(t, source, 4)
	sub := cache.Subscribe()
	defer sub.Close()

	_, version, err := sub.Next(testContext(t), 0)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := source.UpdateFavorites(context.Background(), contacts("b", "c")); err != nil {
		t.Fatalf("update favorites: %v", err)
	}
	state, _, err := sub.Next(testContext(t), version)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := contactIDs(state.Contacts); !equalStrings(got, []string{"b", "c"}) {
		t.Fatalf("expected [b c], got %v", got)
	}

	latest, err := cache.Latest(testContext(t))
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got := contactIDs(latest.Contacts); !equalStrings(got, []string{"b", "c"}) {
		t.Fatalf("expected latest [b c], got %v", got)
	}
}

func TestChangesBeyondDisplayLimitDoNotEmit(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a", "b", "c", "d", "e")...)
	cache := newTestStateCache(t, source, 4)
	sub := cache.Subscribe()
	defer sub.Close()

	_, version, err := sub.Next(testContext(t), 0)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := source.UpdateFavorites(context.Background(), contacts("a", "b", "c", "d", "z")); err != nil {
		t.Fatalf("update favorites: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, err := sub.Next(ctx, version); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected no new state, got %v", err)
	}
}

func TestEnsureNonEmptySkipsWriteWhenPopulated(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a")...)
	cache := newTestStateCache(t, source, 4)

	state, err := cache.EnsureNonEmpty(testContext(t), contacts("x", "y"))
	if err != nil {
		t.Fatalf("ensure non-empty: %v", err)
	}
	if got := contactIDs(state.Contacts); !equalStrings(got, []string{"a"}) {
		t.Fatalf("expected existing state, got %v", got)
	}
	if got := source.writeCount(); got != 0 {
		t.Fatalf("expected no writes, got %d", got)
	}
}

func TestEnsureNonEmptyWritesDefaultsOnce(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites()
	cache := newTestStateCache(t, source, 4)

	state, err := cache.EnsureNonEmpty(testContext(t), contacts("x", "y"))
	if err != nil {
		t.Fatalf("ensure non-empty: %v", err)
	}
	if got := contactIDs(state.Contacts); !equalStrings(got, []string{"x", "y"}) {
		t.Fatalf("expected defaults, got %v", got)
	}
	if got := source.writeCount(); got != 1 {
		t.Fatalf("expected exactly one write, got %d", got)
	}

	latest, err := cache.Latest(testContext(t))
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got := contactIDs(latest.Contacts); !equalStrings(got, []string{"x", "y"}) {
		t.Fatalf("expected latest to return defaults, got %v", got)
	}
}

func TestEnsureNonEmptyReturnsEmptyWhenWriteFails(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites()
	source.updateErr = errors.New("read only")
	var logged []string
	cache, err := NewStateCache(source, StateCacheConfig{
		Schedule: neverTeardown,
		Logf: func(format string, _ ...any) {
			logged = append(logged, format)
		},
	})
	if err != nil {
		t.Fatalf("new state cache: %v", err)
	}

	state, err := cache.EnsureNonEmpty(testContext(t), contacts("x"))
	if err != nil {
		t.Fatalf("expected best-effort write, got %v", err)
	}
	if !state.Empty() {
		t.Fatalf("expected empty state, got %v", contactIDs(state.Contacts))
	}
	if got := source.writeCount(); got != 1 {
		t.Fatalf("expected one write attempt, got %d", got)
	}
	if len(logged) == 0 {
		t.Fatal("expected write failure to be logged")
	}
}

func TestEnsureNonEmptyWithoutDefaultsSkipsWrite(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites()
	cache := newTestStateCache(t, source, 4)

	state, err := cache.EnsureNonEmpty(testContext(t), nil)
	if err != nil {
		t.Fatalf("ensure non-empty: %v", err)
	}
	if !state.Empty() {
		t.Fatal("expected empty state")
	}
	if got := source.writeCount(); got != 0 {
		t.Fatalf("expected no writes, got %d", got)
	}
}

func TestLatestSurfacesWatchFailure(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites()
	source.watchErr = errors.New("store offline")
	cache := newTestStateCache(t, source, 4)

	if _, err := cache.Latest(testContext(t)); !errors.Is(err, ErrFavoritesUnavailable) {
		t.Fatalf("expected ErrFavoritesUnavailable, got %v", err)
	}
}

func TestLatestRecoversAfterWatchEnds(t *testing.T) {
	t.Parallel()

	source := newFakeFavorites(contacts("a")...)
	cache := newTestStateCache(t, source, 4)
	sub := cache.Subscribe()

	_, version, err := sub.Next(testContext(t), 0)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	source.closeWatchers()
	if _, _, err := sub.Next(testContext(t), version); !errors.Is(err, ErrFavoritesUnavailable) {
		t.Fatalf("expected ErrFavoritesUnavailable after watch ended, got %v", err)
	}
	sub.Close()

	state, err := cache.Latest(testContext(t))
	if err != nil {
		t.Fatalf("latest after restart: %v", err)
	}
	if got := contactIDs(state.Contacts); !equalStrings(got, []string{"a"}) {
		t.Fatalf("expected [a], got %v", got)
	}
	if got := source.watchCount(); got != 2 {
		t.Fatalf("expected a fresh watch, got %d watches", got)
	}
}
