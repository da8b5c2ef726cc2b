package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/pkg/logger"
)

const searchKeyPrefix = "products:search:"

// CachedRepository caches Search results in Redis and drops them on every write.
// With a nil client it passes every call through.
type CachedRepository struct {
	domain.ProductRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedRepository wraps next with a search cache
func NewCachedRepository(next domain.ProductRepository, client *redis.Client, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepository{ProductRepository: next, client: client, ttl: ttl}
}

func (r *CachedRepository) Search(ctx context.Context, name, category string) ([]domain.Product, error) {
	if r.client == nil {
		return r.ProductRepository.Search(ctx, name, category)
	}

	key := searchKey(name, category)
	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var products []domain.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
			return products, nil
		}
	}

	products, err := r.ProductRepository.Search(ctx, name, category)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(products)
	if err == nil {
		if err := r.client.Set(ctx, key, body, r.ttl).Err(); err != nil {
			logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to cache search result")
		}
	}
	return products, nil
}

func (r *CachedRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return r.Search(ctx, "", "")
}

func (r *CachedRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.ProductRepository.Create(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) Update(ctx context.Context, product *domain.Product, entry *domain.InventoryLog) error {
	if err := r.ProductRepository.Update(ctx, product, entry); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) Delete(ctx context.Context, id uint) error {
	if err := r.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) invalidate(ctx context.Context) {
	if r.client == nil {
		return
	}
	if err := InvalidateSearchCache(ctx, r.client); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate search cache")
	}
}

// InvalidateSearchCache deletes every cached search result
func InvalidateSearchCache(ctx context.Context, client *redis.Client) error {
	iter := client.Scan(ctx, 0, searchKeyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		if err := client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
		logger.Debug(ctx).Int("count", len(keys)).Msg("Search cache invalidated")
	}
	return nil
}

func searchKey(name, category string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s", name, category)))
	return searchKeyPrefix + hex.EncodeToString(hash[:])
}
