package query

import (
	"context"
	"fmt"

	"github.com/tair/inventory-console/internal/product/domain"
)

// GetHistoryQuery represents the query for a product's stock history
type GetHistoryQuery struct {
	ProductID uint
}

// GetHistoryHandler handles get history query
type GetHistoryHandler struct {
	repo domain.ProductRepository
}

// NewGetHistoryHandler creates a new get history handler
func NewGetHistoryHandler(repo domain.ProductRepository) *GetHistoryHandler {
	return &GetHistoryHandler{repo: repo}
}

// Handle returns the inventory log, most recent first
func (h *GetHistoryHandler) Handle(ctx context.Context, query GetHistoryQuery) ([]domain.InventoryLog, error) {
	if query.ProductID == 0 {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrInvalidInput)
	}

	if _, err := h.repo.FindByID(ctx, query.ProductID); err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	logs, err := h.repo.FindLogs(ctx, query.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if logs == nil {
		logs = []domain.InventoryLog{}
	}
	return logs, nil
}
