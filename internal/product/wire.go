//go:build wireinject
// +build wireinject

package product

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tair/inventory-console/internal/product/delivery/http"
	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/usecase/command"
)

// InitializeHTTPHandler initializes the REST handler with all dependencies
func InitializeHTTPHandler(base domain.ProductRepository, rdb *redis.Client, ttl CacheTTL, publisher command.StockEventPublisher, reg prometheus.Registerer) (*http.ProductHandler, error) {
	wire.Build(
		RepositorySet,
		UseCaseSet,
		http.NewProductHandler,
	)
	return nil, nil
}

// InitializeLocalService initializes the in-process data service used in demo mode
func InitializeLocalService(base domain.ProductRepository, rdb *redis.Client, ttl CacheTTL, publisher command.StockEventPublisher, latency Latency) (*LocalService, error) {
	wire.Build(
		RepositorySet,
		UseCaseSet,
		NewLocalService,
	)
	return nil, nil
}
