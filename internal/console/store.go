package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/pkg/logger"
)

// Query is the search text and category the collection was loaded for
type Query struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// PatchToken identifies one optimistic patch
type PatchToken uint64

type outstandingPatch struct {
	token PatchToken
	patch domain.ProductPatch
}

// StoreConfig tunes a Store
type StoreConfig struct {
	// RequestTimeout bounds every data service call. Zero disables it.
	RequestTimeout time.Duration
	// Actor is recorded in the inventory log when the context carries none.
	Actor string
}

// Store owns the product collection. Every mutation of the collection goes
// through its methods; other components only read snapshots.
type Store struct {
	svc      domain.DataService
	notifier Notifier
	seq      *Sequencer
	metrics  *Metrics
	cfg      StoreConfig

	mu        sync.RWMutex
	products  []domain.Product
	query     Query
	applied   *Query
	patches   map[uint]outstandingPatch
	deleting  map[uint]int
	lastToken PatchToken
	inflight  int
	listeners []func(n int)
	switched  []func(q Query)
}

// NewStore creates an empty store. seq is shared with every component that
// issues loads; metrics may be nil.
func NewStore(svc domain.DataService, notifier Notifier, seq *Sequencer, metrics *Metrics, cfg StoreConfig) *Store {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if seq == nil {
		seq = &Sequencer{}
	}
	return &Store{
		svc:      svc,
		notifier: notifier,
		seq:      seq,
		metrics:  metrics,
		cfg:      cfg,
		products: []domain.Product{},
		patches:  make(map[uint]outstandingPatch),
		deleting: make(map[uint]int),
	}
}

// OnChange registers fn to be called with the collection size after every
// change. fn runs outside the store lock.
func (s *Store) OnChange(fn func(n int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnQuerySwitch registers fn to be called after a load for a different query
// than the previously applied one replaces the collection, whichever caller
// issued it. fn runs outside the store lock, after the OnChange listeners.
func (s *Store) OnQuerySwitch(fn func(q Query)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switched = append(s.switched, fn)
}

// Load fetches the collection for q and replaces the current one, unless a
// newer load was issued meanwhile. It reports whether the result was applied.
// On failure the previous collection is kept.
func (s *Store) Load(ctx context.Context, q Query) (bool, error) {
	ticket := s.seq.Next()

	s.mu.Lock()
	s.query = q
	s.inflight++
	s.mu.Unlock()

	start := time.Now()
	callCtx, cancel := s.callContext(ctx)
	products, err := s.svc.List(callCtx, q.Text, q.Category)
	cancel()
	took := time.Since(start)

	s.mu.Lock()
	s.inflight--
	if !s.seq.IsLatest(ticket) {
		s.mu.Unlock()
		s.metrics.observeLoad(loadStale, took)
		logger.Debug(ctx).
			Uint64("ticket", uint64(ticket)).
			Str("query", q.Text).
			Str("category", q.Category).
			Msg("Discarding stale load")
		return false, nil
	}
	if err != nil {
		s.mu.Unlock()
		s.metrics.observeLoad(loadFailed, took)
		logger.Error(ctx).Err(err).Str("query", q.Text).Str("category", q.Category).Msg("Failed to load products")
		s.notify("Failed to load products", SeverityError)
		return false, err
	}

	loaded := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if s.deleting[p.ID] > 0 {
			continue
		}
		if pending, ok := s.patches[p.ID]; ok {
			pending.patch.ApplyTo(&p)
		} else {
			p.Normalize()
		}
		loaded = append(loaded, p)
	}
	s.products = loaded
	var switched []func(Query)
	if s.applied == nil || *s.applied != q {
		switched = slices.Clone(s.switched)
	}
	s.applied = &q
	n, listeners := s.changedLocked()
	s.mu.Unlock()

	s.metrics.observeLoad(loadApplied, took)
	logger.Debug(ctx).
		Uint64("ticket", uint64(ticket)).
		Int("count", n).
		Dur("took", took).
		Msg("Products loaded")
	emit(listeners, n)
	for _, fn := range switched {
		fn(q)
	}
	return true, nil
}

// Resync reloads the query of the last issued load.
func (s *Store) Resync(ctx context.Context) (bool, error) {
	return s.Load(ctx, s.Query())
}

// ApplyOptimistic merges patch into the product immediately and records it as
// the outstanding patch for id, replacing any earlier one.
func (s *Store) ApplyOptimistic(id uint, patch domain.ProductPatch) PatchToken {
	s.mu.Lock()
	s.lastToken++
	token := s.lastToken
	s.patches[id] = outstandingPatch{token: token, patch: patch}
	if i := s.indexLocked(id); i >= 0 {
		patch.ApplyTo(&s.products[i])
	}
	n, listeners := s.changedLocked()
	s.mu.Unlock()

	emit(listeners, n)
	return token
}

// ConfirmUpdate replaces the product with the server's copy. If a newer patch
// than token is outstanding for id, it is merged back on top.
func (s *Store) ConfirmUpdate(id uint, token PatchToken, server domain.Product) {
	server.Normalize()

	s.mu.Lock()
	pending, ok := s.patches[id]
	if ok && pending.token == token {
		delete(s.patches, id)
		ok = false
	}
	if i := s.indexLocked(id); i >= 0 {
		if ok {
			pending.patch.ApplyTo(&server)
		}
		s.products[i] = server
	}
	n, listeners := s.changedLocked()
	s.mu.Unlock()

	emit(listeners, n)
}

// RevertUpdate drops the patch behind token and resynchronizes with the
// server. A newer outstanding patch for id is kept.
func (s *Store) RevertUpdate(ctx context.Context, id uint, token PatchToken) error {
	s.mu.Lock()
	if pending, ok := s.patches[id]; ok && pending.token == token {
		delete(s.patches, id)
	}
	s.mu.Unlock()

	_, err := s.Resync(ctx)
	return err
}

// Update applies patch optimistically, sends it and then confirms or reverts.
func (s *Store) Update(ctx context.Context, id uint, patch domain.ProductPatch) (*domain.Product, error) {
	token := s.ApplyOptimistic(id, patch)

	callCtx, cancel := s.callContext(ctx)
	product, err := s.svc.Update(callCtx, id, patch)
	cancel()
	s.metrics.observeMutation("update", err)

	if err != nil {
		logger.Error(ctx).Err(err).Uint("product_id", id).Msg("Failed to update product")
		s.notify("Failed to update product", SeverityError)
		if revertErr := s.RevertUpdate(ctx, id, token); revertErr != nil {
			logger.Warn(ctx).Err(revertErr).Uint("product_id", id).Msg("Resync after failed update failed")
		}
		return nil, err
	}

	s.ConfirmUpdate(id, token, *product)
	s.notify("Product updated", SeveritySuccess)
	confirmed := *product
	confirmed.Normalize()
	return &confirmed, nil
}

// Remove deletes the product locally, then on the server. A failed delete
// resynchronizes; a product the server no longer has counts as deleted.
func (s *Store) Remove(ctx context.Context, id uint) error {
	s.mu.Lock()
	s.deleting[id]++
	delete(s.patches, id)
	if i := s.indexLocked(id); i >= 0 {
		s.products = append(s.products[:i], s.products[i+1:]...)
	}
	n, listeners := s.changedLocked()
	s.mu.Unlock()
	emit(listeners, n)

	callCtx, cancel := s.callContext(ctx)
	err := s.svc.Delete(callCtx, id)
	cancel()

	s.mu.Lock()
	s.deleting[id]--
	if s.deleting[id] <= 0 {
		delete(s.deleting, id)
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		s.metrics.observeMutation("delete", nil)
		s.notify("Product deleted", SeveritySuccess)
		return nil
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.observeMutation("delete", nil)
		logger.Info(ctx).Uint("product_id", id).Msg("Product was already deleted")
		s.notify("Product was already deleted", SeverityInfo)
		return nil
	default:
		s.metrics.observeMutation("delete", err)
		logger.Error(ctx).Err(err).Uint("product_id", id).Msg("Failed to delete product")
		s.notify("Failed to delete product", SeverityError)
		if _, resyncErr := s.Resync(ctx); resyncErr != nil {
			logger.Warn(ctx).Err(resyncErr).Uint("product_id", id).Msg("Resync after failed delete failed")
		}
		return err
	}
}

// Create adds a product on the server and reloads. Nothing is inserted
// locally; on failure the error is returned and the collection is untouched.
func (s *Store) Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	callCtx, cancel := s.callContext(ctx)
	product, err := s.svc.Create(callCtx, input)
	cancel()
	s.metrics.observeMutation("create", err)
	if err != nil {
		logger.Error(ctx).Err(err).Str("name", input.Name).Msg("Failed to create product")
		return nil, err
	}

	s.notify(fmt.Sprintf("Product %q created", product.Name), SeveritySuccess)
	if _, err := s.Resync(ctx); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", product.ID).Msg("Reload after create failed")
	}
	return product, nil
}

// Snapshot returns a copy of the collection in load order
func (s *Store) Snapshot() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get returns a copy of one product
func (s *Store) Get(id uint) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.products[i], true
	}
	return domain.Product{}, false
}

// Query returns the query of the last issued load
func (s *Store) Query() Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Loading reports whether a load is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Outstanding reports whether an optimistic patch is pending for id
func (s *Store) Outstanding(id uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.patches[id]
	return ok
}

// callContext bounds a data service call and attaches the configured actor.
func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Actor != "" && domain.ActorFrom(ctx) == domain.DefaultActor {
		ctx = domain.WithActor(ctx, s.cfg.Actor)
	}
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Store) notify(message string, severity Severity) {
	s.metrics.observeNotification(severity)
	s.notifier.Notify(message, severity)
}

func (s *Store) indexLocked(id uint) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) changedLocked() (int, []func(int)) {
	n := len(s.products)
	s.metrics.setProducts(n)
	listeners := make([]func(int), len(s.listeners))
	copy(listeners, s.listeners)
	return n, listeners
}

func emit(listeners []func(int), n int) {
	for _, fn := range listeners {
		fn(n)
	}
}
