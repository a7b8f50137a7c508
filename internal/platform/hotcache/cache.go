// Package hotcache keeps the latest value of a long-running source while at
// least one subscriber holds a lease on it.
//
// The source is started lazily on the first Acquire and shared by every lease.
// When the last lease is released the source keeps running for a grace period
// so that short gaps between consumers do not restart it. Once the grace period
// elapses the source is cancelled and the cached value is dropped.
package hotcache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultGrace is the teardown delay applied after the last lease is released.
const DefaultGrace = 5 * time.Second

var (
	// ErrSourceRequired indicates the cache was built without a source.
	ErrSourceRequired = errors.New("hot cache source is required")
	// ErrSourceClosed indicates the source returned without an error while leases were held.
	ErrSourceClosed = errors.New("hot cache source closed")
	// ErrLeaseReleased indicates a read on a lease that was already released.
	ErrLeaseReleased = errors.New("hot cache lease released")
)

// Source runs until ctx is cancelled, handing every produced value to publish.
// Returning a non-nil error fails the current subscription.
type Source[T any] func(ctx context.Context, publish func(T)) error

// Scheduler runs f after d and returns a function that cancels the pending run.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

// Options tunes cache lifecycle behavior.
type Options struct {
	// Grace delays teardown after the last lease is released. Zero uses
	// DefaultGrace; a negative value tears down immediately.
	Grace time.Duration
	// Schedule replaces time.AfterFunc for teardown timers.
	Schedule Scheduler
	// Logf receives lifecycle diagnostics.
	Logf func(string, ...any)
}

// Cache shares one running source between all lease holders.
type Cache[T any] struct {
	source   Source[T]
	grace    time.Duration
	schedule Scheduler
	logf     func(string, ...any)

	mu           sync.Mutex
	leases       int
	current      *subscription[T]
	stopTeardown func() bool
	started      int
}

// subscription is one run of the source. Fields are guarded by Cache.mu.
type subscription[T any] struct {
	cancel  context.CancelFunc
	value   T
	version uint64
	err     error
	changed chan struct{}
}

// New builds a cache around source.
func New[T any](source Source[T], opts Options) (*Cache[T], error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	grace := opts.Grace
	if grace == 0 {
		grace = DefaultGrace
	}
	schedule := opts.Schedule
	if schedule == nil {
		schedule = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Cache[T]{
		source:   source,
		grace:    grace,
		schedule: schedule,
		logf:     logf,
	}, nil
}

// Acquire takes a lease, starting the source when no healthy subscription exists.
func (c *Cache[T]) Acquire() *Lease[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leases++
	if c.stopTeardown != nil {
		c.stopTeardown()
		c.stopTeardown = nil
	}
	if c.current == nil || c.current.err != nil {
		c.current = c.startLocked()
	}
	return &Lease[T]{cache: c, sub: c.current}
}

// Leases reports the number of outstanding leases.
func (c *Cache[T]) Leases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leases
}

// Active reports whether a subscription is currently running.
func (c *Cache[T]) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.err == nil
}

// Starts reports how many times the source has been started.
func (c *Cache[T]) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *Cache[T]) startLocked() *subscription[T] {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription[T]{cancel: cancel, changed: make(chan struct{})}
	c.started++
	go func() {
		err := c.source(ctx, func(value T) { c.publish(sub, value) })
		c.finish(ctx, sub, err)
	}()
	return sub
}

func (c *Cache[T]) publish(sub *subscription[T], value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub.err != nil {
		return
	}
	sub.value = value
	sub.version++
	sub.broadcastLocked()
}

func (c *Cache[T]) finish(ctx context.Context, sub *subscription[T], err error) {
	tornDown := ctx.Err() != nil
	sub.cancel()
	if tornDown {
		return
	}
	if err == nil {
		err = ErrSourceClosed
	}
	c.logf("hot cache source failed: %v", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	sub.err = err
	sub.broadcastLocked()
	if c.current == sub && c.leases == 0 {
		c.current = nil
	}
}

func (c *Cache[T]) release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leases--
	if c.leases > 0 || c.current == nil {
		return
	}
	sub := c.current
	if c.grace < 0 {
		c.teardownLocked(sub)
		return
	}
	c.stopTeardown = c.schedule(c.grace, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.leases == 0 && c.current == sub {
			c.teardownLocked(sub)
		}
	})
}

func (c *Cache[T]) teardownLocked(sub *subscription[T]) {
	c.current = nil
	c.stopTeardown = nil
	sub.cancel()
	var zero T
	sub.value = zero
	c.logf("hot cache subscription torn down")
}

func (s *subscription[T]) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Lease is one consumer's hold on the shared subscription.
type Lease[T any] struct {
	cache    *Cache[T]
	sub      *subscription[T]
	released bool
	once     sync.Once
}

// Latest waits for the first value produced by the subscription and returns
// the most recent one.
func (l *Lease[T]) Latest(ctx context.Context) (T, error) {
	value, _, err := l.Next(ctx, 0)
	return value, err
}

// Next waits for a value newer than after and returns it with its version.
func (l *Lease[T]) Next(ctx context.Context, after uint64) (T, uint64, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	c := l.cache
	for {
		c.mu.Lock()
		if l.released {
			c.mu.Unlock()
			return zero, after, ErrLeaseReleased
		}
		sub := l.sub
		if sub.err != nil {
			err := sub.err
			c.mu.Unlock()
			return zero, after, err
		}
		if sub.version > after {
			value, version := sub.value, sub.version
			c.mu.Unlock()
			return value, version, nil
		}
		changed := sub.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, after, ctx.Err()
		case <-changed:
		}
	}
}

// Release returns the lease. Calling it more than once is a no-op.
func (l *Lease[T]) Release() {
	l.once.Do(func() {
		l.cache.mu.Lock()
		l.released = true
		l.cache.mu.Unlock()
		l.cache.release()
	})
}
