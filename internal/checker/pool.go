package checker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool is a fixed-capacity permit pool gating concurrent outbound fetches.
// It bounds the number of sockets and file handles a run can hold open at
// once. Acquisition blocks until a permit frees; there is no polling.
type Pool struct {
	sem      *semaphore.Weighted
	capacity int64
}

// NewPool creates a Pool with the given capacity.
func NewPool(capacity int64) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		sem:      semaphore.NewWeighted(capacity),
		capacity: capacity,
	}
}

// Capacity returns the fixed permit count.
func (p *Pool) Capacity() int64 {
	return p.capacity
}

// Acquire blocks until a permit is available or the context finishes.
// On success it returns a release function that must be called exactly once,
// typically deferred so every exit path of the holder returns the permit.
// Calling release more than once is a no-op.
func (p *Pool) Acquire(ctx context.Context) (func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire permit: %w", err)
	}
	var once sync.Once
	release := func() {
		once.Do(func() { p.sem.Release(1) })
	}
	return release, nil
}
