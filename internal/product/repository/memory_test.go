package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/inventory-console/internal/product/domain"
)

func TestMemoryRepositorySearch(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		category string
		wantIDs  []uint
	}{
		{"no filter keeps server order", "", "", []uint{1, 2, 3, 4, 5}},
		{"case-insensitive substring", "KEY", "", []uint{3}},
		{"exact category", "", "Electronics", []uint{1, 3, 5}},
		{"category is case-sensitive", "", "electronics", nil},
		{"both filters", "o", "Electronics", []uint{1, 3, 5}},
		{"no match", "nomatch", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.Search(ctx, tt.query, tt.category)
			require.NoError(t, err)

			var ids []uint
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMemoryRepositorySeedDerivesStatus(t *testing.T) {
	repo := NewMemoryRepositoryWith([]domain.Product{
		{ID: 9, Name: "Lamp", Stock: 0, Status: domain.StatusInStock},
	}, nil)

	p, err := repo.FindByID(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusOutOfStock, p.Status)
}

func TestMemoryRepositoryCreateAssignsIDs(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p := &domain.Product{Name: "Desk Lamp", Stock: 3}
	require.NoError(t, repo.Create(ctx, p))

	assert.Equal(t, uint(6), p.ID)
	assert.Equal(t, domain.StatusInStock, p.Status)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, "Desk Lamp", all[5].Name)
}

func TestMemoryRepositoryUpdateAppendsLog(t *testing.T) {
	// given
	repo := NewMemoryRepository()
	ctx := context.Background()
	p, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)

	// when
	p.Stock = 0
	entry := &domain.InventoryLog{OldStock: 45, NewStock: 0, ChangedBy: "alice", Timestamp: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Update(ctx, p, entry))

	// then
	stored, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOutOfStock, stored.Status)

	logs, err := repo.FindLogs(ctx, 3)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint(3), logs[0].ProductID)
	assert.Equal(t, "alice", logs[0].ChangedBy)
	assert.NotZero(t, logs[0].ID)
}

func TestMemoryRepositoryLogsMostRecentFirst(t *testing.T) {
	repo := NewMemoryRepository()

	logs, err := repo.FindLogs(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, uint(102), logs[0].ID)
	assert.Equal(t, uint(101), logs[1].ID)
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Update(ctx, &domain.Product{ID: 42}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Delete(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindByName(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryRepositoryDeleteDropsLogs(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, 1))

	_, err := repo.FindByID(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	logs, err := repo.FindLogs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMemoryRepositoryFindByNameIgnoresCase(t *testing.T) {
	repo := NewMemoryRepository()

	p, err := repo.FindByName(context.Background(), "  wireless headphones ")

	require.NoError(t, err)
	assert.Equal(t, uint(1), p.ID)
}

func TestMemoryRepositoriesAreIndependent(t *testing.T) {
	a := NewMemoryRepository()
	b := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, a.Delete(ctx, 1))

	_, err := b.FindByID(ctx, 1)
	assert.NoError(t, err)
}
