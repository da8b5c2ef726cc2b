package query

import (
	"context"
	"fmt"

	"github.com/tair/inventory-console/internal/product/domain"
)

// ListProductsQuery represents the search behind the product list
type ListProductsQuery struct {
	Name     string // Optional: case-insensitive substring
	Category string // Optional: exact match
}

// ListProductsHandler handles list products query
type ListProductsHandler struct {
	repo domain.ProductRepository
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(repo domain.ProductRepository) *ListProductsHandler {
	return &ListProductsHandler{repo: repo}
}

// Handle executes the list products query
func (h *ListProductsHandler) Handle(ctx context.Context, query ListProductsQuery) ([]domain.Product, error) {
	products, err := h.repo.Search(ctx, query.Name, query.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}
