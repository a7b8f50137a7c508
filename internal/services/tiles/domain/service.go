package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrServiceNotConfigured indicates the tiles service is nil or incomplete.
	ErrServiceNotConfigured = errors.New("tiles service is not configured")
	// ErrStateCacheNotConfigured indicates the service was built without a state cache.
	ErrStateCacheNotConfigured = errors.New("state cache is not configured")
	// ErrResolverNotConfigured indicates the service was built without a resolver.
	ErrResolverNotConfigured = errors.New("resolver is not configured")
)

// Config wires the tiles service.
type Config struct {
	Source   FavoritesSource
	Cache    *StateCache
	Resolver *Resolver
	// Defaults seed an empty favorites list the first time a tile is requested.
	Defaults []Contact
}

// Service answers host tile and resource requests.
type Service struct {
	source   FavoritesSource
	cache    *StateCache
	resolver *Resolver
	defaults []Contact
}

// NewService validates cfg and builds the service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Source == nil {
		return nil, ErrFavoritesSourceNotConfigured
	}
	if cfg.Cache == nil {
		return nil, ErrStateCacheNotConfigured
	}
	if cfg.Resolver == nil {
		return nil, ErrResolverNotConfigured
	}
	defaults, err := NormalizeContacts(cfg.Defaults)
	if err != nil {
		return nil, fmt.Errorf("default contacts: %w", err)
	}
	return &Service{
		source:   cfg.Source,
		cache:    cfg.Cache,
		resolver: cfg.Resolver,
		defaults: defaults,
	}, nil
}

// GetTileState returns the state to render, seeding defaults when the
// favorites list is empty.
func (s *Service) GetTileState(ctx context.Context) (TileState, error) {
	if s == nil || s.cache == nil {
		return TileState{}, ErrServiceNotConfigured
	}
	state, err := s.cache.Latest(ctx)
	if err != nil {
		return TileState{}, err
	}
	if !state.Empty() {
		return state, nil
	}
	return s.cache.EnsureNonEmpty(ctx, s.defaults)
}

// GetResources resolves the images request selects from the current state.
func (s *Service) GetResources(ctx context.Context, request ResourceRequest) (Resolution, error) {
	if s == nil || s.cache == nil || s.resolver == nil {
		return Resolution{}, ErrServiceNotConfigured
	}
	state, err := s.cache.Latest(ctx)
	if err != nil {
		return Resolution{}, err
	}
	return s.resolver.Resolve(ctx, state, request)
}

// ListFavorites returns the full favorites list as currently stored.
func (s *Service) ListFavorites(ctx context.Context) ([]Contact, error) {
	if s == nil || s.source == nil {
		return nil, ErrServiceNotConfigured
	}
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, err := s.source.WatchFavorites(watchCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFavoritesUnavailable, err)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case favorites, ok := <-updates:
		if !ok {
			return nil, fmt.Errorf("%w: watch closed", ErrFavoritesUnavailable)
		}
		return cloneContacts(favorites), nil
	}
}

// ReplaceFavorites stores a new favorites list.
func (s *Service) ReplaceFavorites(ctx context.Context, favorites []Contact) error {
	if s == nil || s.source == nil {
		return ErrServiceNotConfigured
	}
	normalized, err := NormalizeContacts(favorites)
	if err != nil {
		return err
	}
	return s.source.UpdateFavorites(ctx, normalized)
}

// Subscribe streams tile state changes until the subscription is closed.
func (s *Service) Subscribe() (*Subscription, error) {
	if s == nil || s.cache == nil {
		return nil, ErrServiceNotConfigured
	}
	return s.cache.Subscribe(), nil
}
