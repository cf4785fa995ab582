package query

import (
	"context"
	"fmt"
	"time"
)

// Fetch returns the value for q.Key, going to the network only when needed.
//
//   - fresh entry: the cached value, no fetch;
//   - stale entry: the cached value, plus a background revalidation;
//   - no value yet: waits for the (possibly shared) in-flight fetch.
//
// A disabled query never fetches. When ctx ends before the fetch does, Fetch
// returns ctx.Err() and the fetch carries on for the other waiters.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) (Result[T], error) {
	if err := ctx.Err(); err != nil {
		return Result[T]{Status: StatusIdle}, err
	}

	c.mu.Lock()
	e := c.entryLocked(q.Key)

	if q.Disabled {
		r := resultLocked[T](c, e, q.StaleTime)
		c.mu.Unlock()
		return r, nil
	}

	if e.hasData {
		if c.staleLocked(e, q.StaleTime) {
			c.startLocked(ctx, e, erase(q.Fn))
		}
		r := resultLocked[T](c, e, q.StaleTime)
		c.mu.Unlock()
		return r, nil
	}

	cl := c.startLocked(ctx, e, erase(q.Fn))
	e.observers++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		e.observers--
		e.lastUsed = c.now()
		c.mu.Unlock()
	}()

	select {
	case <-cl.done:
	case <-ctx.Done():
		return Result[T]{Status: StatusPending, IsFetching: true}, ctx.Err()
	}

	if cl.err != nil {
		return Result[T]{Status: StatusError, Err: cl.err}, cl.err
	}
	v, err := as[T](q.Key, cl.val)
	if err != nil {
		return Result[T]{Status: StatusError, Err: err}, err
	}

	c.mu.Lock()
	r := Result[T]{Data: v, Status: StatusSuccess, UpdatedAt: e.updatedAt, IsStale: e.invalidated}
	c.mu.Unlock()
	return r, nil
}

// Peek returns whatever is known about q.Key right now and never blocks. It
// starts a fetch when the entry is missing or stale, so calling it again
// later observes the result. An entry whose last fetch failed is not
// refetched by Peek; Fetch or Invalidate does that.
func Peek[T any](c *Cache, q Query[T]) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(q.Key)
	if q.Disabled {
		return resultLocked[T](c, e, q.StaleTime)
	}

	switch {
	case e.hasData:
		if c.staleLocked(e, q.StaleTime) {
			c.startLocked(context.Background(), e, erase(q.Fn))
		}
	case e.err == nil:
		c.startLocked(context.Background(), e, erase(q.Fn))
	}

	r := resultLocked[T](c, e, q.StaleTime)
	if !e.hasData && q.KeepPrevious {
		if prev := c.placeholderLocked(e); prev != nil {
			if v, err := as[T](prev.key, prev.data); err == nil {
				r.Data = v
				r.Status = StatusSuccess
				r.UpdatedAt = prev.updatedAt
				r.IsPlaceholder = true
			}
		}
	}
	return r
}

// placeholderLocked finds the most recently updated entry of e's family that
// has data.
func (c *Cache) placeholderLocked(e *entry) *entry {
	var best *entry
	for _, other := range c.entries {
		if other == e || other.family != e.family || !other.hasData {
			continue
		}
		if best == nil || other.updatedAt.After(best.updatedAt) {
			best = other
		}
	}
	return best
}

func resultLocked[T any](c *Cache, e *entry, staleTime time.Duration) Result[T] {
	r := Result[T]{IsFetching: e.call != nil}

	switch {
	case e.hasData:
		v, err := as[T](e.key, e.data)
		if err != nil {
			r.Status, r.Err = StatusError, err
			return r
		}
		r.Data = v
		r.Status = StatusSuccess
		r.UpdatedAt = e.updatedAt
		r.IsStale = c.staleLocked(e, staleTime)
		r.Err = e.err
	case e.call != nil:
		r.Status = StatusPending
	case e.err != nil:
		r.Status, r.Err = StatusError, e.err
	default:
		r.Status = StatusIdle
	}
	return r
}

func erase[T any](fn func(context.Context) (T, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		if fn == nil {
			return nil, fmt.Errorf("query has no fetch function")
		}
		return fn(ctx)
	}
}

func as[T any](k Key, v any) (T, error) {
	if v == nil {
		var zero T
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s: cached %T, want %T", k.String(), v, zero)
	}
	return t, nil
}
