package product

import (
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/repository"
	"github.com/tair/inventory-console/internal/product/usecase"
	"github.com/tair/inventory-console/internal/product/usecase/command"
	"github.com/tair/inventory-console/internal/product/usecase/query"
)

// CacheTTL is how long a cached search result lives in Redis
type CacheTTL time.Duration

// ProvideProductRepository layers tracing and the search cache over the storage
// backend. rdb may be nil to disable caching.
func ProvideProductRepository(base domain.ProductRepository, rdb *redis.Client, ttl CacheTTL) domain.ProductRepository {
	return repository.NewCachedRepository(repository.NewTracingRepository(base), rdb, time.Duration(ttl))
}

// RepositorySet provides the decorated product repository
var RepositorySet = wire.NewSet(
	ProvideProductRepository,
)

// UseCaseSet provides every command and query handler
var UseCaseSet = wire.NewSet(
	command.NewCreateProductHandler,
	command.NewUpdateProductHandler,
	command.NewDeleteProductHandler,
	command.NewImportProductsHandler,
	query.NewListProductsHandler,
	query.NewGetHistoryHandler,
	query.NewExportProductsHandler,
	usecase.NewUseCases,
)
