package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/inventory-console/internal/product/domain"
)

// countingRepository counts Search calls that reach the backing store.
type countingRepository struct {
	*MemoryRepository
	searches int
}

func (r *countingRepository) Search(ctx context.Context, name, category string) ([]domain.Product, error) {
	r.searches++
	return r.MemoryRepository.Search(ctx, name, category)
}

func newCachedRepository(t *testing.T) (*CachedRepository, *countingRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingRepository{MemoryRepository: NewMemoryRepository()}
	return NewCachedRepository(backing, client, time.Minute), backing, mr
}

func TestCachedRepositoryServesRepeatedSearchFromRedis(t *testing.T) {
	repo, backing, mr := newCachedRepository(t)
	ctx := context.Background()

	first, err := repo.Search(ctx, "key", "")
	require.NoError(t, err)
	second, err := repo.Search(ctx, "key", "")
	require.NoError(t, err)

	assert.Equal(t, 1, backing.searches)
	assert.Equal(t, first, second)
	assert.Len(t, mr.Keys(), 1)
}

func TestCachedRepositoryInvalidatesOnWrite(t *testing.T) {
	repo, backing, mr := newCachedRepository(t)
	ctx := context.Background()

	_, err := repo.Search(ctx, "", "")
	require.NoError(t, err)
	_, err = repo.Search(ctx, "", "Electronics")
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 2)

	p, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	p.Stock = 0
	require.NoError(t, repo.Update(ctx, p, nil))

	assert.Empty(t, mr.Keys())
	products, err := repo.Search(ctx, "", "Electronics")
	require.NoError(t, err)
	assert.Equal(t, 3, backing.searches)
	assert.Equal(t, domain.StatusOutOfStock, products[1].Status)
}

func TestCachedRepositoryFailedWriteKeepsCache(t *testing.T) {
	repo, _, mr := newCachedRepository(t)
	ctx := context.Background()

	_, err := repo.Search(ctx, "", "")
	require.NoError(t, err)

	err = repo.Delete(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, mr.Keys(), 1)
}

func TestCachedRepositoryWithoutClientPassesThrough(t *testing.T) {
	backing := &countingRepository{MemoryRepository: NewMemoryRepository()}
	repo := NewCachedRepository(backing, nil, 0)
	ctx := context.Background()

	_, err := repo.Search(ctx, "", "")
	require.NoError(t, err)
	_, err = repo.Search(ctx, "", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, &domain.Product{Name: "Mug"}))

	assert.Equal(t, 2, backing.searches)
}

func TestSearchKeyDistinguishesFilters(t *testing.T) {
	assert.NotEqual(t, searchKey("ab", ""), searchKey("a", "b"))
	assert.Equal(t, searchKey("x", "y"), searchKey("x", "y"))
}
