// Package storage holds what the favorites store backends share: sentinel
// errors and the change fan-out that feeds WatchFavorites.
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
)

var (
	// ErrNotConfigured indicates a nil or closed store.
	ErrNotConfigured = errors.New("storage is not configured")
	// ErrClosed indicates the store was closed.
	ErrClosed = errors.New("storage is closed")
)

// Hub fans favorites changes out to watchers.
//
// Each watcher channel holds at most one pending list; a newer list replaces
// an unread one, so slow readers only ever see the latest favorites.
type Hub struct {
	mu       sync.Mutex
	watchers map[uint64]chan []domain.Contact
	next     uint64
	closed   bool
}

// Watch registers a watcher seeded with snapshot's result. Publish calls made
// after Watch returns are delivered. The watcher is removed when ctx ends;
// the channel is closed only by Close.
func (h *Hub) Watch(ctx context.Context, snapshot func() ([]domain.Contact, error)) (<-chan []domain.Contact, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	current, err := snapshot()
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	if h.watchers == nil {
		h.watchers = map[uint64]chan []domain.Contact{}
	}
	id := h.next
	h.next++
	updates := make(chan []domain.Contact, 1)
	updates <- current
	h.watchers[id] = updates
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}()
	return updates, nil
}

// Publish delivers favorites to every watcher. Each watcher gets its own copy.
func (h *Hub) Publish(favorites []domain.Contact) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, updates := range h.watchers {
		select {
		case <-updates:
		default:
		}
		updates <- append([]domain.Contact{}, favorites...)
	}
}

// Len reports the number of registered watchers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

// Close ends every watch and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, updates := range h.watchers {
		close(updates)
		delete(h.watchers, id)
	}
}
