package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/go-playground/validator/v10"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/pkg/logger"
)

// importRow is one line of an import file. Stock stays text so a bad value
// skips the row instead of rejecting the file.
type importRow struct {
	Name     string `csv:"name"`
	Image    string `csv:"image"`
	Unit     string `csv:"unit"`
	Category string `csv:"category"`
	Brand    string `csv:"brand"`
	Stock    string `csv:"stock"`
}

// ImportProductsCommand represents a CSV bulk import
type ImportProductsCommand struct {
	File io.Reader
}

// ImportProductsHandler handles bulk import command
type ImportProductsHandler struct {
	repo     domain.ProductRepository
	validate *validator.Validate
}

// NewImportProductsHandler creates a new import products handler
func NewImportProductsHandler(repo domain.ProductRepository) *ImportProductsHandler {
	return &ImportProductsHandler{repo: repo, validate: validator.New()}
}

// Handle creates every valid row whose name is not taken yet. Rows matching an
// existing product by case-insensitive name are reported as duplicates.
func (h *ImportProductsHandler) Handle(ctx context.Context, cmd ImportProductsCommand) (*domain.ImportResult, error) {
	var rows []importRow
	if err := gocsv.Unmarshal(cmd.File, &rows); err != nil {
		return nil, fmt.Errorf("%w: malformed csv: %v", domain.ErrImport, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file has no rows", domain.ErrImport)
	}

	result := &domain.ImportResult{Duplicates: []domain.Duplicate{}}
	for i, row := range rows {
		input, err := h.parse(row)
		if err != nil {
			logger.Debug(ctx).Err(err).Int("row", i+1).Msg("Skipping import row")
			result.Skipped++
			continue
		}

		existing, err := h.repo.FindByName(ctx, input.Name)
		switch {
		case err == nil:
			result.Duplicates = append(result.Duplicates, domain.Duplicate{Name: input.Name, ExistingID: existing.ID})
			continue
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("failed to look up %q: %w", input.Name, err)
		}

		product := input.ToProduct()
		if err := h.repo.Create(ctx, &product); err != nil {
			return nil, fmt.Errorf("failed to create %q: %w", input.Name, err)
		}
		result.Added++
	}

	return result, nil
}

func (h *ImportProductsHandler) parse(row importRow) (domain.ProductInput, error) {
	stock := 0
	if s := strings.TrimSpace(row.Stock); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return domain.ProductInput{}, fmt.Errorf("%w: stock %q", domain.ErrInvalidInput, row.Stock)
		}
		stock = n
	}

	input := domain.ProductInput{
		Name:     strings.TrimSpace(row.Name),
		Image:    strings.TrimSpace(row.Image),
		Unit:     strings.TrimSpace(row.Unit),
		Category: strings.TrimSpace(row.Category),
		Brand:    strings.TrimSpace(row.Brand),
		Stock:    stock,
	}
	if err := h.validate.Struct(input); err != nil {
		return domain.ProductInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return input, nil
}
