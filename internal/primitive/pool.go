package primitive

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// PoolStats is a snapshot of a TokenPool's lifetime counters.
type PoolStats struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Acquired int64  `json:"acquired"` // tokens handed out by Acquire/TryAcquire
	Released int64  `json:"released"` // tokens actually returned by Release
	Dropped  int64  `json:"dropped"`  // release requests beyond the held tokens
}

// Balanced reports whether no more tokens were handed out than were ever
// available: Acquired <= Released + Capacity.
func (s PoolStats) Balanced() bool {
	return s.Acquired <= s.Released+int64(s.Capacity)
}

// TokenPool bounds the number of concurrent holders of a resource.
//
// Tokens are tracked in a ledger next to the semaphore so Release can be
// clamped: returning more tokens than are held is counted as dropped
// instead of growing the pool past its capacity.
type TokenPool struct {
	name string
	sem  *semaphore.Weighted

	mu    sync.Mutex
	held  int64
	stats PoolStats
}

// NewTokenPool creates a pool with all capacity tokens available.
// It panics if capacity is not positive.
func NewTokenPool(name string, capacity int) *TokenPool {
	if capacity <= 0 {
		panic(fmt.Sprintf("primitive: token pool %q needs a positive capacity, got %d", name, capacity))
	}
	return &TokenPool{
		name:  name,
		sem:   semaphore.NewWeighted(int64(capacity)),
		stats: PoolStats{Name: name, Capacity: capacity},
	}
}

// Acquire blocks until one token is available and takes it.
// It returns ctx.Err() wrapped with the pool name if ctx ends first; in that
// case no token is taken.
func (p *TokenPool) Acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%s: acquire: %w", p.name, err)
	}
	p.mu.Lock()
	p.held++
	p.stats.Acquired++
	p.mu.Unlock()
	return nil
}

// TryAcquire takes a token if one is available without blocking.
func (p *TokenPool) TryAcquire() bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	p.mu.Lock()
	p.held++
	p.stats.Acquired++
	p.mu.Unlock()
	return true
}

// Release returns up to n tokens and reports how many were returned.
// It never blocks. Requests beyond the tokens currently held are dropped.
func (p *TokenPool) Release(n int) int {
	if n <= 0 {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	k := int64(n)
	if k > p.held {
		p.stats.Dropped += k - p.held
		k = p.held
	}
	if k == 0 {
		return 0
	}
	p.held -= k
	p.stats.Released += k
	p.sem.Release(k)
	return int(k)
}

// Stats returns a snapshot of the pool counters.
func (p *TokenPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
