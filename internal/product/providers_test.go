package product

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/repository"
)

func TestInitializeLocalServiceWithCache(t *testing.T) {
	// given
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc, err := InitializeLocalService(repository.NewMemoryRepository(), rdb, CacheTTL(time.Minute), nil, Latency{})
	require.NoError(t, err)
	ctx := context.Background()

	// when
	products, err := svc.List(ctx, "", "Electronics")

	// then
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.NotEmpty(t, mr.Keys())

	stock := 1
	_, err = svc.Update(ctx, 2, domainPatchStock(stock))
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())
}

func TestInitializeHTTPHandler(t *testing.T) {
	h, err := InitializeHTTPHandler(repository.NewMemoryRepository(), nil, CacheTTL(0), nil, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func domainPatchStock(stock int) domain.ProductPatch {
	return domain.ProductPatch{Stock: &stock}
}
