package command

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/kafka"
	"github.com/tair/inventory-console/pkg/logger"
)

// StockEventPublisher announces stock changes to other consoles
type StockEventPublisher interface {
	PublishStockChanged(ctx context.Context, event kafka.StockChangedEvent) error
}

// UpdateProductCommand represents the command to update a product
type UpdateProductCommand struct {
	ID    uint
	Patch domain.ProductPatch
}

// UpdateProductHandler handles product update command
type UpdateProductHandler struct {
	repo      domain.ProductRepository
	publisher StockEventPublisher
	validate  *validator.Validate
	now       func() time.Time
}

// NewUpdateProductHandler creates a new update product handler.
// publisher may be nil.
func NewUpdateProductHandler(repo domain.ProductRepository, publisher StockEventPublisher) *UpdateProductHandler {
	return &UpdateProductHandler{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	if cmd.ID == 0 {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrInvalidInput)
	}
	if err := h.validate.Struct(cmd.Patch); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	product, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	oldStock := product.Stock
	cmd.Patch.ApplyTo(product)
	now := h.now()
	product.UpdatedAt = now

	var entry *domain.InventoryLog
	if product.Stock != oldStock {
		entry = &domain.InventoryLog{
			ProductID: product.ID,
			OldStock:  oldStock,
			NewStock:  product.Stock,
			ChangedBy: domain.ActorFrom(ctx),
			Timestamp: now,
		}
	}

	if err := h.repo.Update(ctx, product, entry); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if entry != nil && h.publisher != nil {
		event := kafka.StockChangedEvent{
			ProductID:   int64(product.ID),
			ProductName: product.Name,
			OldStock:    entry.OldStock,
			NewStock:    entry.NewStock,
			ChangedBy:   entry.ChangedBy,
			Timestamp:   entry.Timestamp,
		}
		if err := h.publisher.PublishStockChanged(ctx, event); err != nil {
			logger.Warn(ctx).
				Err(err).
				Uint("product_id", product.ID).
				Msg("Stock change saved but event was not published")
		}
	}

	return product, nil
}
