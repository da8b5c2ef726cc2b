package console

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/mocks"
)

// recorder collects notifications
type recorder struct {
	mu    sync.Mutex
	items []recorded
}

type recorded struct {
	Message  string
	Severity Severity
}

func (r *recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, recorded{Message: message, Severity: severity})
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recorded, len(r.items))
	copy(out, r.items)
	return out
}

func (r *recorder) last() recorded {
	items := r.all()
	if len(items) == 0 {
		return recorded{}
	}
	return items[len(items)-1]
}

func product(id uint, name, category string, stock int) domain.Product {
	p := domain.Product{ID: id, Name: name, Category: category, Stock: stock}
	p.Normalize()
	return p
}

func numbered(n int) []domain.Product {
	out := make([]domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, product(uint(i), "Item", "General", i))
	}
	return out
}

type fixture struct {
	svc     *mocks.DataService
	notes   *recorder
	sched   *ManualScheduler
	metrics *Metrics
	console *Console
}

func newFixture(t *testing.T, pageSize int) *fixture {
	t.Helper()
	f := &fixture{
		svc:     &mocks.DataService{},
		notes:   &recorder{},
		sched:   NewManualScheduler(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	f.console = New(context.Background(), f.svc, f.notes, f.metrics, f.sched, Config{
		Debounce: DefaultDebounce,
		PageSize: pageSize,
		Actor:    "operator",
	})
	t.Cleanup(f.console.Close)
	return f
}

// onList answers every list call for text/category with products
func (f *fixture) onList(text, category string, products []domain.Product) *mock.Call {
	return f.svc.On("List", mock.Anything, text, category).Return(products, nil)
}

func (f *fixture) load(t *testing.T, products []domain.Product) {
	t.Helper()
	f.onList("", "", products).Once()
	require.NoError(t, f.console.Start(context.Background()))
}

func stockOf(s *Store, id uint) int {
	p, _ := s.Get(id)
	return p.Stock
}

var (
	anyCtx   = mock.Anything
	errFetch = domain.FetchError("list", 0, errors.New("service unavailable"))
)
