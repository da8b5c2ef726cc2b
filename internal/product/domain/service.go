package domain

import (
	"context"
	"io"
)

// Duplicate names an imported row that matched an existing product.
type Duplicate struct {
	Name       string `json:"name"`
	ExistingID uint   `json:"existingId"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Added      int         `json:"added"`
	Skipped    int         `json:"skipped"`
	Duplicates []Duplicate `json:"duplicates"`
}

// DataService is the remote (or simulated) inventory backend the console talks to.
// Failures are *OperationError values classified by ErrFetch, ErrMutation,
// ErrImport, ErrExport and, where an id no longer exists, ErrNotFound.
type DataService interface {
	// List returns the complete result set for a name query and category, in
	// server order. Empty strings disable the corresponding filter.
	List(ctx context.Context, query, category string) ([]Product, error)
	Update(ctx context.Context, id uint, patch ProductPatch) (*Product, error)
	Delete(ctx context.Context, id uint) error
	Create(ctx context.Context, input ProductInput) (*Product, error)
	// History returns the stock changes of a product, most recent first.
	History(ctx context.Context, id uint) ([]InventoryLog, error)
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
	// Export writes every product as CSV to w.
	Export(ctx context.Context, w io.Writer) error
}
