package console

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/inventory-console/internal/product/domain"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		n, size, want int
	}{
		{0, 5, 1},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{10, 5, 2},
		{11, 5, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.n, tt.size), "n=%d size=%d", tt.n, tt.size)
	}
}

func TestDeletingLastItemOfLastPageClampsDown(t *testing.T) {
	// given
	f := newFixture(t, 5)
	f.load(t, numbered(6))
	require.NoError(t, f.console.Pager().GoTo(2))
	page := f.console.View().Page
	require.Len(t, page.Items, 1)
	require.Equal(t, uint(6), page.Items[0].ID)
	f.svc.On("Delete", anyCtx, uint(6)).Return(nil).Once()

	// when
	require.NoError(t, f.console.Delete(context.Background(), 6))

	// then
	page = f.console.View().Page
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Items, 5)
}

func TestResyncClampsWithoutReset(t *testing.T) {
	// given
	f := newFixture(t, 5)
	f.load(t, numbered(15))
	require.NoError(t, f.console.Pager().GoTo(3))
	f.onList("", "", numbered(12)).Once()

	// when
	_, err := f.console.Store().Resync(context.Background())

	// then
	require.NoError(t, err)
	assert.Equal(t, 3, f.console.Pager().Current())

	f.onList("", "", numbered(7)).Once()
	_, err = f.console.Store().Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.console.Pager().Current())
}

func TestPageSlicing(t *testing.T) {
	p := NewPager(5)
	products := numbered(7)
	p.Recompute(len(products))

	first := p.Page(products)
	assert.Len(t, first.Items, 5)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, 7, first.TotalItems)

	p.Next()
	second := p.Page(products)
	assert.Len(t, second.Items, 2)
	assert.Equal(t, uint(6), second.Items[0].ID)

	p.Next()
	assert.Equal(t, 2, p.Current(), "next stops at the last page")

	require.NoError(t, p.GoTo(4))
	past := p.Page(products)
	assert.Empty(t, past.Items)
	assert.NotNil(t, past.Items)
	assert.Equal(t, 4, past.Page, "no upward clamp")

	p.Prev()
	p.Prev()
	p.Prev()
	p.Prev()
	assert.Equal(t, 1, p.Current())

	assert.ErrorIs(t, p.GoTo(0), domain.ErrInvalidInput)
}

func TestSortProducts(t *testing.T) {
	products := []domain.Product{
		product(1, "banana", "", 5),
		product(2, "Apple", "", 9),
		product(3, "cherry", "", 5),
	}

	tests := []struct {
		opt  SortOption
		want []uint
	}{
		{SortNone, []uint{1, 2, 3}},
		{SortNameAsc, []uint{2, 1, 3}},
		{SortNameDesc, []uint{3, 1, 2}},
		{SortStockAsc, []uint{1, 3, 2}},
		{SortStockDesc, []uint{2, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.opt), func(t *testing.T) {
			sorted := SortProducts(products, tt.opt)
			ids := make([]uint, 0, len(sorted))
			for _, p := range sorted {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
	assert.Equal(t, uint(1), products[0].ID, "input is not reordered")
}

func TestSortByStockHandlesExtremeValues(t *testing.T) {
	// given stocks whose difference does not fit in an int
	products := []domain.Product{
		product(1, "Bulk", "", math.MaxInt),
		product(2, "Backorder", "", -2),
		product(3, "Empty", "", 0),
	}

	// when
	asc := SortProducts(products, SortStockAsc)
	desc := SortProducts(products, SortStockDesc)

	// then
	assert.Equal(t, []uint{2, 3, 1}, []uint{asc[0].ID, asc[1].ID, asc[2].ID})
	assert.Equal(t, []uint{1, 3, 2}, []uint{desc[0].ID, desc[1].ID, desc[2].ID})
}

func TestSetSortResetsPage(t *testing.T) {
	f := newFixture(t, 5)
	f.load(t, numbered(12))
	require.NoError(t, f.console.Pager().GoTo(2))

	require.NoError(t, f.console.SetSort("stock-desc"))

	view := f.console.View()
	assert.Equal(t, 1, view.Page.Page)
	assert.Equal(t, SortStockDesc, view.Page.Sort)
	assert.Equal(t, uint(12), view.Page.Items[0].ID)
	assert.ErrorIs(t, f.console.SetSort("price"), domain.ErrInvalidInput)
}

func TestStatusDerivationIsIdempotent(t *testing.T) {
	for _, stock := range []int{-1, 0, 1, 42} {
		p := domain.Product{Stock: stock}
		p.Normalize()
		first := p.Status
		p.Normalize()
		assert.Equal(t, first, p.Status)
		assert.Equal(t, domain.DeriveStatus(stock), domain.DeriveStatus(stock))
	}
}
