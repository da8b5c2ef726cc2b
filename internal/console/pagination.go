package console

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/pkg/logger"
)

// DefaultPageSize is the number of rows per page
const DefaultPageSize = 10

// SortOption orders the visible rows. The zero value keeps response order.
type SortOption string

const (
	SortNone      SortOption = ""
	SortNameAsc   SortOption = "name-asc"
	SortNameDesc  SortOption = "name-desc"
	SortStockAsc  SortOption = "stock-asc"
	SortStockDesc SortOption = "stock-desc"
)

// ParseSortOption validates a sort option coming from a request
func ParseSortOption(s string) (SortOption, error) {
	switch opt := SortOption(s); opt {
	case SortNone, SortNameAsc, SortNameDesc, SortStockAsc, SortStockDesc:
		return opt, nil
	default:
		return SortNone, fmt.Errorf("%w: unknown sort option %q", domain.ErrInvalidInput, s)
	}
}

// PageResult is one rendered page
type PageResult struct {
	Items      []domain.Product `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	TotalItems int              `json:"totalItems"`
	Sort       SortOption       `json:"sort"`
}

// Pager holds the current page and the presentation order of the collection
type Pager struct {
	mu    sync.Mutex
	size  int
	page  int
	total int
	sort  SortOption
}

// NewPager creates a pager on page 1
func NewPager(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{size: size, page: 1, total: 1}
}

// TotalPages is max(1, ceil(n/size))
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Recompute updates the page count for a collection of n items and moves the
// current page down when it no longer exists. It never moves it up.
func (p *Pager) Recompute(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = TotalPages(n, p.size)
	if p.page > p.total {
		logger.Logger.Debug().Int("from", p.page).Int("to", p.total).Msg("Clamping page")
		p.page = p.total
	}
}

func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = 1
}

// GoTo moves to page n. Pages past the end are allowed and render empty.
func (p *Pager) GoTo(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidInput)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = n
	return nil
}

// Next moves forward one page, stopping at the last page
func (p *Pager) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page < p.total {
		p.page++
	}
}

// Prev moves back one page, stopping at page 1
func (p *Pager) Prev() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page > 1 {
		p.page--
	}
}

// SetSort changes the presentation order and returns to page 1
func (p *Pager) SetSort(opt SortOption) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sort = opt
	p.page = 1
}

func (p *Pager) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Pager) Size() int {
	return p.size
}

func (p *Pager) Sort() SortOption {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sort
}

// Page slices the current page out of products
func (p *Pager) Page(products []domain.Product) PageResult {
	p.mu.Lock()
	page, size, opt := p.page, p.size, p.sort
	p.mu.Unlock()

	ordered := SortProducts(products, opt)
	items := []domain.Product{}
	if start := (page - 1) * size; start < len(ordered) {
		end := min(start+size, len(ordered))
		items = append(items, ordered[start:end]...)
	}

	return PageResult{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalPages: TotalPages(len(products), size),
		TotalItems: len(products),
		Sort:       opt,
	}
}

// SortProducts returns a sorted copy. Ties keep response order.
func SortProducts(products []domain.Product, opt SortOption) []domain.Product {
	out := slices.Clone(products)
	switch opt {
	case SortNameAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortNameDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
		})
	case SortStockAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.Stock, b.Stock) })
	case SortStockDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(b.Stock, a.Stock) })
	}
	return out
}
