package console

import (
	"context"
	"sync"
	"time"

	"github.com/tair/inventory-console/pkg/logger"
)

// DefaultDebounce is the quiet period before a query change is loaded
const DefaultDebounce = 400 * time.Millisecond

// Coordinator debounces query changes into store loads. Loads triggered by a
// query change return the pager to page 1.
type Coordinator struct {
	store   *Store
	pager   *Pager
	sched   Scheduler
	delay   time.Duration
	metrics *Metrics
	ctx     context.Context

	mu    sync.Mutex
	query Query
	timer Timer
	gen   uint64
}

// NewCoordinator creates a coordinator. Debounced loads run with ctx.
func NewCoordinator(ctx context.Context, store *Store, pager *Pager, sched Scheduler, delay time.Duration, metrics *Metrics) *Coordinator {
	if sched == nil {
		sched = RealScheduler{}
	}
	if delay < 0 {
		delay = DefaultDebounce
	}
	return &Coordinator{
		store:   store,
		pager:   pager,
		sched:   sched,
		delay:   delay,
		metrics: metrics,
		ctx:     ctx,
	}
}

func (c *Coordinator) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Text = text
	c.scheduleLocked()
}

func (c *Coordinator) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Category = category
	c.scheduleLocked()
}

// Set replaces text and category in one change
func (c *Coordinator) Set(q Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
	c.scheduleLocked()
}

// Query returns the most recently requested query, loaded or not
func (c *Coordinator) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Refresh loads the current query now, dropping any pending debounce.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.stopLocked()
	q := c.query
	c.mu.Unlock()

	return c.load(ctx, q)
}

// Stop cancels a pending debounce
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Coordinator) scheduleLocked() {
	c.stopLocked()
	gen := c.gen
	q := c.query
	c.timer = c.sched.AfterFunc(c.delay, func() {
		c.fire(gen, q)
	})
}

// stopLocked invalidates the pending callback even when its timer already fired.
func (c *Coordinator) stopLocked() {
	if c.timer != nil {
		if c.timer.Stop() {
			c.metrics.observeDebounced()
		}
		c.timer = nil
	}
	c.gen++
}

func (c *Coordinator) fire(gen uint64, q Query) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	if err := c.load(c.ctx, q); err != nil {
		logger.Debug(c.ctx).Err(err).Str("query", q.Text).Msg("Debounced load failed")
	}
}

func (c *Coordinator) load(ctx context.Context, q Query) error {
	applied, err := c.store.Load(ctx, q)
	if err != nil {
		return err
	}
	if applied {
		c.pager.Reset()
	}
	return nil
}
