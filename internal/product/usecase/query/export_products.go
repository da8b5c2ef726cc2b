package query

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/tair/inventory-console/internal/product/domain"
)

// ExportProductsHandler writes the whole catalogue as CSV
type ExportProductsHandler struct {
	repo domain.ProductRepository
}

// NewExportProductsHandler creates a new export products handler
func NewExportProductsHandler(repo domain.ProductRepository) *ExportProductsHandler {
	return &ExportProductsHandler{repo: repo}
}

// Handle writes a header line and one line per product to w
func (h *ExportProductsHandler) Handle(ctx context.Context, w io.Writer) error {
	products, err := h.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	if err := gocsv.Marshal(products, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
