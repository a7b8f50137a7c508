// Package memory provides an in-process favorites store.
package memory

import (
	"context"
	"sync"

	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/storage"
)

// Store keeps the favorites list in memory.
type Store struct {
	// writeMu orders replacements with their publication.
	writeMu   sync.Mutex
	mu        sync.Mutex
	favorites []domain.Contact
	hub       storage.Hub
}

// New returns a store seeded with favorites.
func New(favorites ...domain.Contact) (*Store, error) {
	normalized, err := domain.NormalizeContacts(favorites)
	if err != nil {
		return nil, err
	}
	return &Store{favorites: normalized}, nil
}

// WatchFavorites emits the current list and every later replacement.
func (s *Store) WatchFavorites(ctx context.Context) (<-chan []domain.Contact, error) {
	if s == nil {
		return nil, storage.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.hub.Watch(ctx, func() ([]domain.Contact, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return append([]domain.Contact{}, s.favorites...), nil
	})
}

// UpdateFavorites replaces the whole list.
func (s *Store) UpdateFavorites(ctx context.Context, favorites []domain.Contact) error {
	if s == nil {
		return storage.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := domain.NormalizeContacts(favorites)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.favorites = normalized
	s.mu.Unlock()
	s.hub.Publish(normalized)
	return nil
}

// Close ends every active watch.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.hub.Close()
	return nil
}
