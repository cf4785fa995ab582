package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/loandesk/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(clk *fakeClock) *Cache {
	opts := Options{StaleTime: 30 * time.Second, GCTime: 5 * time.Minute, RetryDelay: time.Millisecond}
	if clk != nil {
		opts.Now = clk.Now
	}
	return New(opts)
}

// counter returns a fetch function that yields "<prefix>-<n>" on the n-th call.
func counter(prefix string, calls *int32) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		n := atomic.AddInt32(calls, 1)
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

func TestKey_Canonical(t *testing.T) {
	assert.Equal(t, `["contracts",1,10,""]`, Key{"contracts", 1, 10, ""}.String())
	assert.Equal(t, Key{"contracts", 1, 10, ""}.String(), Key{"contracts", 1, 10, ""}.String())
	assert.NotEqual(t, Key{"contract", "42"}.String(), Key{"contract", 42}.String())
	assert.Equal(t, "[]", Key(nil).String())

	k := Key{"contracts", 2, 10, "budi"}
	assert.True(t, k.HasPrefix(Key{"contracts"}))
	assert.True(t, k.HasPrefix(Key{"contracts", 2}))
	assert.True(t, k.HasPrefix(nil))
	assert.False(t, k.HasPrefix(Key{"contracts", "2"}))
	assert.False(t, k.HasPrefix(Key{"contract"}))
	assert.False(t, Key{"users"}.HasPrefix(Key{"users", 1}))
}

func TestFetch_ConcurrentCallersShareOneCall(t *testing.T) {
	c := newTestCache(nil)
	key := Key{"contract", "42"}

	var calls int32
	release := make(chan struct{})
	q := Query[string]{Key: key, Fn: func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "contract-42", nil
	}}

	var wg sync.WaitGroup
	results := make([]Result[string], 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := Fetch(context.Background(), c, q)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	require.Eventually(t, func() bool { return c.observers(key) == 2 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, StatusSuccess, r.Status)
		assert.Equal(t, "contract-42", r.Data)
	}
	assert.Equal(t, 0, c.observers(key))
}

func TestFetch_FreshValueIsServedFromCache(t *testing.T) {
	c := newTestCache(newFakeClock())
	var calls int32
	q := Query[string]{Key: Key{"users"}, Fn: counter("users", &calls)}

	first, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	assert.Equal(t, "users-1", first.Data)
	assert.Equal(t, "users-1", second.Data)
	assert.False(t, second.IsStale)
	assert.False(t, second.IsFetching)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetch_StaleWhileRevalidate(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(clk)
	var calls int32
	q := Query[string]{Key: Key{"users"}, Fn: counter("users", &calls)}

	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	clk.Advance(31 * time.Second)

	r, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, "users-1", r.Data)
	assert.True(t, r.IsStale)

	require.Eventually(t, func() bool {
		p := Peek(c, q)
		return p.Data == "users-2" && !p.IsFetching && !p.IsStale
	}, time.Second, time.Millisecond)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetch_PerQueryStaleTime(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(clk)
	var calls int32
	q := Query[string]{Key: Key{"users"}, Fn: counter("users", &calls), StaleTime: 2 * time.Minute}

	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	clk.Advance(time.Minute)

	r, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	assert.False(t, r.IsStale)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetch_RetriesOnceThenSucceeds(t *testing.T) {
	c := newTestCache(nil)
	var calls int32
	q := Query[string]{Key: Key{"contracts", 1, 10, ""}, Fn: func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", fmt.Errorf("%w: connection reset", common.ErrUnavailable)
		}
		return "page-1", nil
	}}

	r, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, "page-1", r.Data)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterOneRetry(t *testing.T) {
	c := newTestCache(nil)
	var calls int32
	boom := errors.New("boom")
	q := Query[string]{Key: Key{"contracts", 1, 10, ""}, Fn: func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", boom
	}}

	r, err := Fetch(context.Background(), c, q)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusError, r.Status)
	assert.ErrorIs(t, r.Err, boom)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetch_NoRetryOnUnauthorized(t *testing.T) {
	c := newTestCache(nil)
	var calls int32
	q := Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", common.ErrUnauthorized
	}}

	_, err := Fetch(context.Background(), c, q)
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetch_NegativeRetryDisablesRetries(t *testing.T) {
	c := New(Options{Retry: -1})
	var calls int32
	q := Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", common.ErrUnavailable
	}}

	_, err := Fetch(context.Background(), c, q)
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetch_DisabledNeverCallsFn(t *testing.T) {
	c := newTestCache(nil)
	var calls int32
	q := Query[string]{Key: Key{"contract", ""}, Fn: counter("x", &calls), Disabled: true}

	r, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, r.Status)
	assert.Empty(t, r.Data)

	p := Peek(c, q)
	assert.Equal(t, StatusIdle, p.Status)
	assert.False(t, p.IsFetching)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestFetch_ErrorsStayOnTheirKey(t *testing.T) {
	c := newTestCache(nil)
	bad := Query[string]{Key: Key{"contract", "1"}, Fn: func(context.Context) (string, error) {
		return "", common.ErrNotFound
	}}
	var calls int32
	good := Query[string]{Key: Key{"contract", "2"}, Fn: counter("c2", &calls)}

	_, err := Fetch(context.Background(), c, bad)
	require.ErrorIs(t, err, common.ErrNotFound)

	r, err := Fetch(context.Background(), c, good)
	require.NoError(t, err)
	assert.Equal(t, "c2-1", r.Data)
	assert.NoError(t, r.Err)

	assert.Equal(t, StatusError, Peek(c, bad).Status)
}

func TestFetch_CallerCancelLeavesFetchRunning(t *testing.T) {
	c := newTestCache(nil)
	release := make(chan struct{})
	q := Query[string]{Key: Key{"users"}, Fn: func(ctx context.Context) (string, error) {
		<-release
		return "users", ctx.Err()
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, q)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.observers(q.Key) == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return Peek(c, q).Status == StatusSuccess
	}, time.Second, time.Millisecond)
	assert.Equal(t, "users", Peek(c, q).Data)
}

func TestFetch_PanicBecomesError(t *testing.T) {
	c := newTestCache(nil)
	q := Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) {
		panic("kaboom")
	}}

	_, err := Fetch(context.Background(), c, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	var calls int32
	q.Fn = counter("users", &calls)
	r, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, "users-1", r.Data)
}

func TestPeek_StartsFetchAndReportsPending(t *testing.T) {
	c := newTestCache(nil)
	release := make(chan struct{})
	q := Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) {
		<-release
		return "users", nil
	}}

	r := Peek(c, q)
	assert.Equal(t, StatusPending, r.Status)
	assert.True(t, r.IsFetching)

	close(release)
	require.Eventually(t, func() bool { return Peek(c, q).Status == StatusSuccess }, time.Second, time.Millisecond)
}

func TestPeek_KeepPreviousShowsPlaceholder(t *testing.T) {
	c := newTestCache(newFakeClock())
	page1 := Query[string]{Key: Key{"contracts", 1, 10, ""}, KeepPrevious: true,
		Fn: func(context.Context) (string, error) { return "page-1", nil }}

	_, err := Fetch(context.Background(), c, page1)
	require.NoError(t, err)

	release := make(chan struct{})
	page2 := Query[string]{Key: Key{"contracts", 2, 10, ""}, KeepPrevious: true,
		Fn: func(context.Context) (string, error) {
			<-release
			return "page-2", nil
		}}

	r := Peek(c, page2)
	assert.Equal(t, "page-1", r.Data)
	assert.True(t, r.IsPlaceholder)
	assert.True(t, r.IsFetching)

	other := Peek(c, Query[string]{Key: Key{"users"}, KeepPrevious: true,
		Fn: func(context.Context) (string, error) { return "u", nil }})
	assert.False(t, other.IsPlaceholder)

	close(release)
	require.Eventually(t, func() bool {
		r := Peek(c, page2)
		return r.Data == "page-2" && !r.IsPlaceholder
	}, time.Second, time.Millisecond)
}

func TestPeek_DoesNotRefetchAFailedEntry(t *testing.T) {
	c := newTestCache(nil)
	var calls int32
	q := Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", common.ErrForbidden
	}}

	_, err := Fetch(context.Background(), c, q)
	require.ErrorIs(t, err, common.ErrForbidden)

	r := Peek(c, q)
	assert.Equal(t, StatusError, r.Status)
	assert.False(t, r.IsFetching)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestInvalidate_MarksPrefixStale(t *testing.T) {
	c := newTestCache(newFakeClock())
	var usersCalls, contractCalls int32
	users := Query[string]{Key: Key{"users"}, Fn: counter("users", &usersCalls)}
	contract := Query[string]{Key: Key{"contract", "1"}, Fn: counter("c", &contractCalls)}

	_, err := Fetch(context.Background(), c, users)
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, contract)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Invalidate(Key{"users"}))

	r, err := Fetch(context.Background(), c, users)
	require.NoError(t, err)
	assert.True(t, r.IsStale)
	assert.Equal(t, "users-1", r.Data)

	require.Eventually(t, func() bool { return Peek(c, users).Data == "users-2" }, time.Second, time.Millisecond)

	r, err = Fetch(context.Background(), c, contract)
	require.NoError(t, err)
	assert.False(t, r.IsStale)
	assert.EqualValues(t, 1, atomic.LoadInt32(&contractCalls))
}

func TestInvalidate_DuringFetchKeepsEntryStale(t *testing.T) {
	c := newTestCache(newFakeClock())
	release := make(chan struct{})
	q := Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) {
		<-release
		return "old", nil
	}}

	Peek(c, q)
	c.Invalidate(Key{"users"})
	close(release)

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		e := c.entries[q.Key.String()]
		return e.hasData && e.call == nil
	}, time.Second, time.Millisecond)

	c.mu.Lock()
	assert.True(t, c.entries[q.Key.String()].invalidated)
	c.mu.Unlock()
}

func TestRemoveAndClear(t *testing.T) {
	c := newTestCache(nil)
	for _, k := range []Key{{"contracts", 1, 10, ""}, {"contracts", 2, 10, ""}, {"users"}} {
		_, err := Fetch(context.Background(), c, Query[string]{Key: k, Fn: func(context.Context) (string, error) { return "v", nil }})
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Len())

	assert.Equal(t, 2, c.Remove(Key{"contracts"}))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestRemove_InFlightResultIsDropped(t *testing.T) {
	c := newTestCache(nil)
	release := make(chan struct{})
	q := Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) {
		<-release
		return "users", nil
	}}

	done := make(chan Result[string], 1)
	go func() {
		r, _ := Fetch(context.Background(), c, q)
		done <- r
	}()
	require.Eventually(t, func() bool { return c.observers(q.Key) == 1 }, time.Second, time.Millisecond)

	c.Remove(Key{"users"})
	close(release)

	r := <-done
	assert.Equal(t, "users", r.Data)
	assert.Equal(t, 0, c.Len())
}

func TestCollect(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(clk)

	_, err := Fetch(context.Background(), c, Query[string]{Key: Key{"users"}, Fn: func(context.Context) (string, error) { return "u", nil }})
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)
	Peek(c, Query[string]{Key: Key{"contract", "1"}, Fn: func(context.Context) (string, error) {
		<-release
		return "c", nil
	}})

	assert.Equal(t, 0, c.Collect())

	clk.Advance(5 * time.Minute)
	assert.Equal(t, 1, c.Collect(), "in-flight entry must survive")
	assert.Equal(t, 1, c.Len())
}
