package resilience

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool caps the number of requests to the admin endpoint in flight at once.
// A toggle beyond the cap waits for a slot with its control already disabled.
type Pool struct {
	sem   *semaphore.Weighted
	limit int
	busy  atomic.Int64
}

// NewPool creates a Pool with limit slots. A limit below one is raised to one.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit)), limit: limit}
}

// Limit returns the number of slots.
func (p *Pool) Limit() int {
	if p == nil {
		return 0
	}
	return p.limit
}

// Busy returns the number of slots currently held.
func (p *Pool) Busy() int {
	if p == nil {
		return 0
	}
	return int(p.busy.Load())
}

// Do runs fn in a slot. queued reports whether every slot was taken when Do
// was called. If ctx ends before a slot frees up, fn is not run and ctx.Err()
// is returned. A nil pool runs fn directly.
func (p *Pool) Do(ctx context.Context, fn func() error) (queued bool, err error) {
	if p == nil {
		return false, fn()
	}
	if !p.sem.TryAcquire(1) {
		queued = true
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return queued, err
		}
	}
	p.busy.Add(1)
	defer func() {
		p.busy.Add(-1)
		p.sem.Release(1)
	}()
	return queued, fn()
}
