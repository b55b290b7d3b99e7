// Package worker hosts the background loops that advance promotion state
// without an HTTP request: completing due schedules and spawning their next
// occurrences.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/autopromote/internal/pkg/distlock"
)

// DefaultSweepInterval is how often the sweeper polls for due promotions.
const DefaultSweepInterval = 60 * time.Second

// sweepTimeout bounds one sweep pass.
const sweepTimeout = 30 * time.Second

// Processor advances due promotion schedules. *promotion.Service satisfies it.
type Processor interface {
	ProcessCompletedPromotions(ctx context.Context) (int, error)
}

// PromotionSweeper polls for active schedules whose end time has passed,
// completes them, and spawns next occurrences for recurring ones. When a
// lock backend is configured only one instance sweeps at a time.
type PromotionSweeper struct {
	processor    Processor
	pollInterval time.Duration

	// Lock backends; both optional. Nil means sweep unlocked.
	redisClient *redis.Client
	db          *sql.DB

	// Stats
	sweeps    int64
	processed int64
	errors    int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewPromotionSweeper creates a sweeper polling at the given interval.
// A non-positive interval uses DefaultSweepInterval.
func NewPromotionSweeper(processor Processor, interval time.Duration) *PromotionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &PromotionSweeper{
		processor:    processor,
		pollInterval: interval,
	}
}

// SetRedisClient sets the Redis client for distributed locking.
func (ps *PromotionSweeper) SetRedisClient(client *redis.Client) {
	ps.redisClient = client
}

// SetDB sets the database used for advisory-lock fallback.
func (ps *PromotionSweeper) SetDB(db *sql.DB) {
	ps.db = db
}

// Start begins the sweep polling loop
func (ps *PromotionSweeper) Start() error {
	ps.mu.Lock()
	if ps.running {
		ps.mu.Unlock()
		return fmt.Errorf("sweeper already running")
	}
	ps.running = true
	ps.ctx, ps.cancel = context.WithCancel(context.Background())
	ps.mu.Unlock()

	log.Printf("[PromotionSweeper] Starting with poll interval: %v", ps.pollInterval)

	ps.wg.Add(1)
	go ps.sweepLoop()
	return nil
}

// Stop gracefully stops the sweeper
func (ps *PromotionSweeper) Stop() {
	ps.mu.Lock()
	if !ps.running {
		ps.mu.Unlock()
		return
	}
	ps.running = false
	ps.mu.Unlock()

	log.Printf("[PromotionSweeper] Stopping...")
	ps.cancel()
	ps.wg.Wait()
	log.Printf("[PromotionSweeper] Stopped. Sweeps: %d, Processed: %d, Errors: %d",
		atomic.LoadInt64(&ps.sweeps), atomic.LoadInt64(&ps.processed), atomic.LoadInt64(&ps.errors))
}

// IsRunning reports whether the sweep loop is active.
func (ps *PromotionSweeper) IsRunning() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.running
}

// Stats returns sweep counters: passes run, schedules processed, errors.
func (ps *PromotionSweeper) Stats() (sweeps, processed, errors int64) {
	return atomic.LoadInt64(&ps.sweeps), atomic.LoadInt64(&ps.processed), atomic.LoadInt64(&ps.errors)
}

func (ps *PromotionSweeper) sweepLoop() {
	defer ps.wg.Done()

	ticker := time.NewTicker(ps.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ps.ctx.Done():
			return
		case <-ticker.C:
			ps.sweep()
		}
	}
}

// sweep runs one pass under the distributed lock when one is configured.
func (ps *PromotionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(ps.ctx, sweepTimeout)
	defer cancel()

	if ps.redisClient != nil || ps.db != nil {
		lock := distlock.NewLock(ps.redisClient, ps.db, "promotion-sweep", sweepTimeout)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			atomic.AddInt64(&ps.errors, 1)
			log.Printf("[PromotionSweeper] Lock acquire failed: %v", err)
			return
		}
		if !acquired {
			// Another instance is sweeping.
			return
		}
		defer lock.Release(ctx)
	}

	atomic.AddInt64(&ps.sweeps, 1)
	n, err := ps.processor.ProcessCompletedPromotions(ctx)
	if err != nil {
		atomic.AddInt64(&ps.errors, 1)
		log.Printf("[PromotionSweeper] Sweep failed: %v", err)
		return
	}
	if n > 0 {
		atomic.AddInt64(&ps.processed, int64(n))
		log.Printf("[PromotionSweeper] Completed %d due promotions", n)
	}
}
