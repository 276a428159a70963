package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/report"
)

func TestLRUEvictionAndTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](2, time.Minute).WithClock(func() time.Time { return now })

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a is now most recent
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "entries expire at ttl")
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())

	s := c.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(2), s.Misses)
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[string](10, time.Hour)
	c.Set("u1|2025-01", "x")
	c.Set("u1|2025-02", "y")
	c.Set("u10|2025-01", "z")

	assert.Equal(t, 2, c.DeletePrefix("u1|"))
	assert.Equal(t, 1, c.Size())
	c.Delete("u10|2025-01")
	assert.Equal(t, 0, c.Size())
}

func TestManagerCleanNow(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Second).WithClock(func() time.Time { return now })
	c.Set("a", 1)

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(time.Hour)
	now = now.Add(time.Second)
	assert.Equal(t, 1, m.CleanNow())
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager(nil).Stop()
}

func march() report.Month {
	m, _ := report.ParseMonth("2025-03")
	return m
}

func TestReportsCachesPerUserAndMonth(t *testing.T) {
	r := NewReports(10, time.Hour)
	var calls atomic.Int32
	build := func(context.Context) (report.MonthlyReport, error) {
		calls.Add(1)
		return report.MonthlyReport{SelectedMonth: "2025-03"}, nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rep, err := r.Get(ctx, 1, march(), build)
		require.NoError(t, err)
		assert.Equal(t, "2025-03", rep.SelectedMonth)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err := r.Get(ctx, 2, march(), build)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "users do not share entries")

	assert.Equal(t, 1, r.Invalidate(1))
	_, err = r.Get(ctx, 1, march(), build)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReportsDoesNotCacheErrors(t *testing.T) {
	r := NewReports(10, time.Hour)
	boom := errors.New("boom")
	_, err := r.Get(context.Background(), 1, march(), func(context.Context) (report.MonthlyReport, error) {
		return report.MonthlyReport{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Stats().Size)
}

func TestReportsSingleflight(t *testing.T) {
	r := NewReports(10, time.Hour)
	release := make(chan struct{})
	var calls atomic.Int32
	build := func(context.Context) (report.MonthlyReport, error) {
		calls.Add(1)
		<-release
		return report.MonthlyReport{SelectedMonth: "2025-03"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Get(context.Background(), 1, march(), build)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestReportsInvalidateDuringBuild(t *testing.T) {
	r := NewReports(10, time.Hour)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = r.Get(context.Background(), 1, march(), func(context.Context) (report.MonthlyReport, error) {
			close(started)
			<-release
			return report.MonthlyReport{SelectedMonth: "stale"}, nil
		})
	}()

	<-started
	r.Invalidate(1)
	close(release)
	<-done

	assert.Equal(t, 0, r.Stats().Size, "a result computed before invalidation is not stored")
}
