package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tair/inventory-console/internal/product/domain"
)

// MemoryRepository keeps products and their inventory logs in process memory.
// Each instance owns its own dataset.
type MemoryRepository struct {
	mu        sync.RWMutex
	products  []domain.Product
	logs      []domain.InventoryLog
	nextID    uint
	nextLogID uint
	now       func() time.Time
}

// NewMemoryRepository returns a repository holding the demo catalogue.
func NewMemoryRepository() *MemoryRepository {
	now := time.Now()
	return NewMemoryRepositoryWith(DemoProducts(), DemoLogs(now))
}

// NewMemoryRepositoryWith returns a repository holding copies of products and logs.
func NewMemoryRepositoryWith(products []domain.Product, logs []domain.InventoryLog) *MemoryRepository {
	r := &MemoryRepository{
		products: make([]domain.Product, 0, len(products)),
		logs:     slices.Clone(logs),
		now:      time.Now,
	}
	for _, p := range products {
		p.Normalize()
		r.products = append(r.products, p)
		r.nextID = max(r.nextID, p.ID)
	}
	for _, l := range logs {
		r.nextLogID = max(r.nextLogID, l.ID)
	}
	return r
}

// DemoProducts is the catalogue served in demo mode.
func DemoProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Wireless Headphones", Image: "https://picsum.photos/50/50?random=1", Unit: "pcs", Category: "Electronics", Brand: "Sony", Stock: 120},
		{ID: 2, Name: "Ergonomic Chair", Image: "https://picsum.photos/50/50?random=2", Unit: "pcs", Category: "Furniture", Brand: "Herman Miller", Stock: 0},
		{ID: 3, Name: "Mechanical Keyboard", Image: "https://picsum.photos/50/50?random=3", Unit: "pcs", Category: "Electronics", Brand: "Keychron", Stock: 45},
		{ID: 4, Name: "Organic Coffee Beans", Image: "https://picsum.photos/50/50?random=4", Unit: "kg", Category: "Grocery", Brand: "Blue Bottle", Stock: 200},
		{ID: 5, Name: `27" 4K Monitor`, Image: "https://picsum.photos/50/50?random=5", Unit: "pcs", Category: "Electronics", Brand: "Dell", Stock: 12},
	}
}

// DemoLogs is the stock history of the demo catalogue relative to now.
func DemoLogs(now time.Time) []domain.InventoryLog {
	return []domain.InventoryLog{
		{ID: 101, ProductID: 1, OldStock: 100, NewStock: 120, ChangedBy: "admin", Timestamp: now.Add(-24 * time.Hour)},
		{ID: 102, ProductID: 1, OldStock: 120, NewStock: 110, ChangedBy: domain.DefaultActor, Timestamp: now},
	}
}

func (r *MemoryRepository) Search(_ context.Context, name, category string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.Matches(name, category) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return r.Search(ctx, "", "")
}

func (r *MemoryRepository) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}

func (r *MemoryRepository) FindByName(_ context.Context, name string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimSpace(name)
	for _, p := range r.products {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	product.ID = r.nextID
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Normalize()
	r.products = append(r.products, *product)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, product *domain.Product, entry *domain.InventoryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(product.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	product.Normalize()
	product.UpdatedAt = r.now()
	r.products[i] = *product

	if entry != nil {
		r.nextLogID++
		entry.ID = r.nextLogID
		entry.ProductID = product.ID
		if entry.Timestamp.IsZero() {
			entry.Timestamp = product.UpdatedAt
		}
		r.logs = append(r.logs, *entry)
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.products = slices.Delete(r.products, i, i+1)
	r.logs = slices.DeleteFunc(r.logs, func(l domain.InventoryLog) bool { return l.ProductID == id })
	return nil
}

func (r *MemoryRepository) FindLogs(_ context.Context, productID uint) ([]domain.InventoryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := []domain.InventoryLog{}
	for _, l := range r.logs {
		if l.ProductID == productID {
			logs = append(logs, l)
		}
	}
	slices.SortStableFunc(logs, func(a, b domain.InventoryLog) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return int(b.ID) - int(a.ID)
	})
	return logs, nil
}

func (r *MemoryRepository) indexOf(id uint) int {
	return slices.IndexFunc(r.products, func(p domain.Product) bool { return p.ID == id })
}
