package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/loandesk/internal/common"
	"github.com/dmitrijs2005/loandesk/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultStaleTime  = 30 * time.Second
	DefaultGCTime     = 5 * time.Minute
	DefaultRetry      = 1
	DefaultRetryDelay = time.Second

	maxRetryDelay = 30 * time.Second
)

// Options configures a Cache. Zero values fall back to the defaults above,
// except Retry where a negative value disables retries.
type Options struct {
	StaleTime  time.Duration
	GCTime     time.Duration
	Retry      int
	RetryDelay time.Duration

	Log logging.Logger
	// Now is the clock; tests replace it.
	Now func() time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	staleTime  time.Duration
	gcTime     time.Duration
	retries    uint64
	retryDelay time.Duration

	log logging.Logger
	now func() time.Time
}

type entry struct {
	key    Key
	family string

	data      any
	hasData   bool
	updatedAt time.Time
	err       error

	// gen is bumped by Invalidate; a fetch started under an older generation
	// leaves the entry invalidated when it lands.
	gen         uint64
	invalidated bool

	lastUsed  time.Time
	observers int
	call      *call
}

type call struct {
	done chan struct{}
	gen  uint64
	val  any
	err  error
}

func New(opts Options) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		staleTime:  opts.StaleTime,
		gcTime:     opts.GCTime,
		retryDelay: opts.RetryDelay,
		log:        opts.Log,
		now:        opts.Now,
	}
	if c.staleTime <= 0 {
		c.staleTime = DefaultStaleTime
	}
	if c.gcTime <= 0 {
		c.gcTime = DefaultGCTime
	}
	switch {
	case opts.Retry > 0:
		c.retries = uint64(opts.Retry)
	case opts.Retry == 0:
		c.retries = DefaultRetry
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// entryLocked returns the entry for k, creating it when absent.
func (c *Cache) entryLocked(k Key) *entry {
	id := k.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: k, family: k.family()}
		c.entries[id] = e
	}
	e.lastUsed = c.now()
	return e
}

func (c *Cache) staleLocked(e *entry, staleTime time.Duration) bool {
	if e.invalidated {
		return true
	}
	if staleTime <= 0 {
		staleTime = c.staleTime
	}
	return c.now().Sub(e.updatedAt) >= staleTime
}

// startLocked launches a fetch for e unless one is already running, and
// returns the running call.
func (c *Cache) startLocked(ctx context.Context, e *entry, fn func(context.Context) (any, error)) *call {
	if e.call != nil {
		return e.call
	}
	cl := &call{done: make(chan struct{}), gen: e.gen}
	e.call = cl
	go c.run(context.WithoutCancel(ctx), e, cl, fn)
	return cl
}

func (c *Cache) run(ctx context.Context, e *entry, cl *call, fn func(context.Context) (any, error)) {
	id := e.key.String()
	defer func() {
		if r := recover(); r != nil {
			cl.val, cl.err = nil, fmt.Errorf("query %s: panic: %v", id, r)
		}

		c.mu.Lock()
		if e.call == cl {
			e.call = nil
		}
		// Removed or cleared while in flight: the result goes nowhere.
		if c.entries[id] == e {
			if cl.err == nil {
				e.data, e.hasData = cl.val, true
				e.updatedAt = c.now()
				e.err = nil
				e.invalidated = e.gen != cl.gen
			} else {
				e.err = cl.err
			}
		}
		c.mu.Unlock()
		close(cl.done)
	}()

	started := c.now()
	cl.val, cl.err = c.withRetry(ctx, id, fn)
	if cl.err != nil {
		c.log.Warn(ctx, "query failed", "key", id, "error", cl.err)
		return
	}
	c.log.Debug(ctx, "query fetched", "key", id, "elapsed", c.now().Sub(started))
}

func (c *Cache) withRetry(ctx context.Context, id string, fn func(context.Context) (any, error)) (any, error) {
	b := retry.WithMaxRetries(c.retries, retry.WithCappedDuration(maxRetryDelay, retry.NewExponential(c.retryDelay)))

	var (
		val     any
		attempt int
	)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		v, err := fn(ctx)
		if err != nil {
			if !retryable(err) {
				return err
			}
			c.log.Debug(ctx, "query attempt failed", "key", id, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		val = v
		return nil
	})
	return val, err
}

// retryable reports whether another attempt can change the outcome. A 401
// or a rejected request will not.
func retryable(err error) bool {
	switch {
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrForbidden),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// Invalidate marks every entry under prefix stale. Readers keep seeing the
// old data while the next read revalidates it. It returns the number of
// entries touched.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.gen++
			e.invalidated = true
			n++
		}
	}
	return n
}

// Remove drops every entry under prefix. Fetches in flight for those keys
// still finish for their waiters but are not stored.
func (c *Cache) Remove(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

// Clear drops everything, e.g. on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Collect drops entries that have no observers, no fetch in flight, and
// have not been used for the GC time. It returns the number dropped.
func (c *Cache) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for id, e := range c.entries {
		if e.observers == 0 && e.call == nil && now.Sub(e.lastUsed) >= c.gcTime {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// observers is the number of callers currently waiting on k.
func (c *Cache) observers(k Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k.String()]; ok {
		return e.observers
	}
	return 0
}
