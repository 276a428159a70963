package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bilancio/internal/report"
)

// Reports caches monthly reports per (user, month). Concurrent misses for
// the same key share one computation. Invalidate drops a user's entries and
// discards results of computations that started before it.
type Reports struct {
	lru   *LRUCache[report.MonthlyReport]
	group singleflight.Group

	mu  sync.Mutex
	gen map[int64]uint64
}

func NewReports(size int, ttl time.Duration) *Reports {
	return &Reports{
		lru: NewLRUCache[report.MonthlyReport](size, ttl),
		gen: make(map[int64]uint64),
	}
}

func userPrefix(userID int64) string {
	return fmt.Sprintf("u%d|", userID)
}

func reportKey(userID int64, m report.Month) string {
	return userPrefix(userID) + m.Key()
}

func (r *Reports) generation(userID int64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen[userID]
}

// Get returns the cached report or computes it with build.
func (r *Reports) Get(ctx context.Context, userID int64, m report.Month, build func(context.Context) (report.MonthlyReport, error)) (report.MonthlyReport, error) {
	key := reportKey(userID, m)
	if rep, ok := r.lru.Get(key); ok {
		return rep, nil
	}

	gen := r.generation(userID)
	flightKey := fmt.Sprintf("%s|%d", key, gen)
	v, err, _ := r.group.Do(flightKey, func() (interface{}, error) {
		// A cancelled first caller must not fail the callers sharing its flight.
		rep, err := build(context.WithoutCancel(ctx))
		if err != nil {
			return report.MonthlyReport{}, err
		}
		r.mu.Lock()
		if r.gen[userID] == gen {
			r.lru.Set(key, rep)
		}
		r.mu.Unlock()
		return rep, nil
	})
	if err != nil {
		return report.MonthlyReport{}, err
	}
	return v.(report.MonthlyReport), nil
}

// Invalidate drops every cached report of userID.
func (r *Reports) Invalidate(userID int64) int {
	r.mu.Lock()
	r.gen[userID]++
	r.mu.Unlock()
	return r.lru.DeletePrefix(userPrefix(userID))
}

// Cleaner exposes the underlying LRU to a Manager.
func (r *Reports) Cleaner() Cleaner {
	return r.lru
}

func (r *Reports) Stats() Stats {
	return r.lru.Stats()
}
