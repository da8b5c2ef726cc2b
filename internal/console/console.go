// Package console keeps the operator's view of the inventory in sync with the
// data service: optimistic edits, debounced queries and pagination.
package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/kafka"
	"github.com/tair/inventory-console/pkg/logger"
)

// Config tunes the engine
type Config struct {
	Debounce       time.Duration
	PageSize       int
	RequestTimeout time.Duration
	Actor          string
}

// Console wires the store, query coordinator, pager and edit session together.
type Console struct {
	svc      domain.DataService
	notifier Notifier
	metrics  *Metrics
	cfg      Config

	store *Store
	query *Coordinator
	pager *Pager
	edit  *EditSession
}

// View is everything the screen renders
type View struct {
	Query      Query      `json:"query"`
	Categories []string   `json:"categories"`
	Loading    bool       `json:"loading"`
	Page       PageResult `json:"page"`
	Edit       *EditView  `json:"edit,omitempty"`
}

// EditView is the edit session as shown on screen
type EditView struct {
	State  EditState  `json:"state"`
	Buffer EditBuffer `json:"buffer"`
}

// History is the change log of one product with its chart series
type History struct {
	Logs   []domain.InventoryLog `json:"logs"`
	Series []domain.StockPoint   `json:"series"`
}

// New builds an engine over svc. ctx bounds the debounced loads; metrics may be
// nil and sched defaults to the runtime timers.
func New(ctx context.Context, svc domain.DataService, notifier Notifier, metrics *Metrics, sched Scheduler, cfg Config) *Console {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}

	seq := &Sequencer{}
	store := NewStore(svc, notifier, seq, metrics, StoreConfig{
		RequestTimeout: cfg.RequestTimeout,
		Actor:          cfg.Actor,
	})
	pager := NewPager(cfg.PageSize)
	store.OnChange(pager.Recompute)
	store.OnQuerySwitch(func(Query) { pager.Reset() })

	return &Console{
		svc:      svc,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		store:    store,
		query:    NewCoordinator(ctx, store, pager, sched, cfg.Debounce, metrics),
		pager:    pager,
		edit:     NewEditSession(store),
	}
}

func (c *Console) Store() *Store             { return c.store }
func (c *Console) Coordinator() *Coordinator { return c.query }
func (c *Console) Pager() *Pager             { return c.pager }
func (c *Console) Edit() *EditSession        { return c.edit }

// Start performs the initial load
func (c *Console) Start(ctx context.Context) error {
	return c.query.Refresh(ctx)
}

// Close stops a pending debounced load
func (c *Console) Close() {
	c.query.Stop()
}

// Categories lists the distinct non-empty categories of the collection in
// first-seen order.
func (c *Console) Categories() []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, p := range c.store.Snapshot() {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

// View renders the current page
func (c *Console) View() View {
	v := View{
		Query:      c.query.Query(),
		Categories: c.Categories(),
		Loading:    c.store.Loading(),
		Page:       c.pager.Page(c.store.Snapshot()),
	}
	if state, buf := c.edit.State(); buf != nil {
		v.Edit = &EditView{State: state, Buffer: *buf}
	}
	return v
}

// SetSort changes the presentation order
func (c *Console) SetSort(s string) error {
	opt, err := ParseSortOption(s)
	if err != nil {
		return err
	}
	c.pager.SetSort(opt)
	return nil
}

// Create adds a product. Failures are returned to the caller and reported.
func (c *Console) Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	product, err := c.store.Create(ctx, input)
	if err != nil {
		c.notify("Failed to create product", SeverityError)
		return nil, err
	}
	return product, nil
}

// Delete removes a product
func (c *Console) Delete(ctx context.Context, id uint) error {
	return c.store.Remove(ctx, id)
}

// History loads the change log of a product
func (c *Console) History(ctx context.Context, id uint) (*History, error) {
	callCtx, cancel := c.store.callContext(ctx)
	defer cancel()

	logs, err := c.svc.History(callCtx, id)
	if err != nil {
		logger.Error(ctx).Err(err).Uint("product_id", id).Msg("Failed to load history")
		c.notify("Failed to load history", SeverityError)
		return nil, err
	}
	if logs == nil {
		logs = []domain.InventoryLog{}
	}
	return &History{Logs: logs, Series: domain.StockSeries(logs)}, nil
}

// Import sends a CSV file to the data service and reloads
func (c *Console) Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	callCtx, cancel := c.store.callContext(ctx)
	result, err := c.svc.Import(callCtx, r)
	cancel()
	c.metrics.observeMutation("import", err)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Import failed")
		c.notify("Error importing file", SeverityError)
		return nil, err
	}

	c.notify(ImportSummary(result), SeveritySuccess)
	if _, err := c.store.Resync(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Reload after import failed")
	}
	return result, nil
}

// ImportSummary is the message shown after an import
func ImportSummary(r *domain.ImportResult) string {
	return fmt.Sprintf("Import successful: added %d, skipped %d, duplicates %d",
		r.Added, r.Skipped, len(r.Duplicates))
}

// Export writes every product as CSV to w
func (c *Console) Export(ctx context.Context, w io.Writer) error {
	callCtx, cancel := c.store.callContext(ctx)
	defer cancel()

	if err := c.svc.Export(callCtx, w); err != nil {
		logger.Error(ctx).Err(err).Msg("Export failed")
		c.notify("Failed to export products", SeverityError)
		return err
	}
	return nil
}

// HandleStockEvent reports stock changes made by other operators and reloads.
func (c *Console) HandleStockEvent(ctx context.Context, event kafka.StockChangedEvent) error {
	if c.cfg.Actor != "" && event.ChangedBy == c.cfg.Actor {
		return nil
	}

	c.notify(fmt.Sprintf("%s changed stock of %s from %d to %d",
		event.ChangedBy, event.ProductName, event.OldStock, event.NewStock), SeverityInfo)

	if _, err := c.store.Resync(ctx); err != nil {
		return fmt.Errorf("failed to reload after stock event: %w", err)
	}
	return nil
}

func (c *Console) notify(message string, severity Severity) {
	c.metrics.observeNotification(severity)
	c.notifier.Notify(message, severity)
}
