package domain

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeFavorites struct {
	mu        sync.Mutex
	favorites []Contact
	watchers  map[int]chan []Contact
	nextID    int
	watches   int
	writes    [][]Contact
	watchErr  error
	updateErr error
}

func newFakeFavorites(favorites ...Contact) *fakeFavorites {
	return &fakeFavorites{favorites: favorites, watchers: map[int]chan []Contact{}}
}

func (f *fakeFavorites) WatchFavorites(ctx context.Context) (<-chan []Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	f.watches++
	id := f.nextID
	f.nextID++
	updates := make(chan []Contact, 16)
	updates <- cloneContacts(f.favorites)
	f.watchers[id] = updates
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
	}()
	return updates, nil
}

func (f *fakeFavorites) UpdateFavorites(_ context.Context, favorites []Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, cloneContacts(favorites))
	if f.updateErr != nil {
		return f.updateErr
	}
	f.favorites = cloneContacts(favorites)
	for _, updates := range f.watchers {
		updates <- cloneContacts(favorites)
	}
	return nil
}

// closeWatchers ends every active watch as if the store went away.
func (f *fakeFavorites) closeWatchers() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, updates := range f.watchers {
		close(updates)
		delete(f.watchers, id)
	}
}

func (f *fakeFavorites) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeFavorites) watchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watches
}

type fakeLoader struct {
	mu          sync.Mutex
	calls       []string
	failing     map[string]bool
	inFlight    int
	maxInFlight int
	started     chan string
	release     chan struct{}
}

func (l *fakeLoader) LoadAvatar(ctx context.Context, contact Contact) (Image, bool) {
	l.mu.Lock()
	l.calls = append(l.calls, contact.ID)
	l.inFlight++
	if l.inFlight > l.maxInFlight {
		l.maxInFlight = l.inFlight
	}
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.inFlight--
		l.mu.Unlock()
	}()

	if l.started != nil {
		l.started <- contact.ID
	}
	if l.release != nil {
		select {
		case <-l.release:
		case <-ctx.Done():
			return Image{}, false
		}
	}
	if l.failing[contact.ID] {
		return Image{}, false
	}
	return imageFor(contact), true
}

func (l *fakeLoader) callIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func imageFor(contact Contact) Image {
	return Image{Format: "png", WidthPX: 1, HeightPX: 1, Data: []byte(contact.ID)}
}

// neverTeardown keeps subscriptions alive for the whole test.
func neverTeardown(time.Duration, func()) func() bool {
	return func() bool { return true }
}

func newTestStateCache(t *testing.T, source FavoritesSource, limit int) *StateCache {
	t.Helper()
	cache, err := NewStateCache(source, StateCacheConfig{DisplayLimit: limit, Schedule: neverTeardown})
	if err != nil {
		t.Fatalf("new state cache: %v", err)
	}
	return cache
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func contacts(ids ...string) []Contact {
	out := make([]Contact, 0, len(ids))
	for _, id := range ids {
		out = append(out, Contact{ID: id, Name: "Contact " + id})
	}
	return out
}

func contactIDs(list []Contact) []string {
	ids := make([]string, 0, len(list))
	for _, contact := range list {
		ids = append(ids, contact.ID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
